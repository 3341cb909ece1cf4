package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/pkg/response"
)

const authorIDKey = "author_id"

// AuthMiddleware requires a valid author token and puts the author into
// the request context
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Missing authorization header")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(authorIDKey, claims.AuthorID)
		c.Request = c.Request.WithContext(auth.WithAuthor(c.Request.Context(), claims.Author()))

		c.Next()
	}
}

// GetAuthorID retrieves the author ID set by AuthMiddleware
func GetAuthorID(c *gin.Context) string {
	return c.GetString(authorIDKey)
}
