package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/auth"
)

const (
	CookieAccessToken = "access_token"
	ContextAuthorKey  = "web_author"
)

// AuthMiddleware reads the author token from the cookie, or from a Bearer
// header, and puts the author into the request context
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(CookieAccessToken)
		if err != nil {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			// Not signed in. Continue without an author in context.
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			// Invalid token, clear cookie
			c.SetCookie(CookieAccessToken, "", -1, "/", "", false, true)
			c.Next()
			return
		}

		c.Set(ContextAuthorKey, claims.AuthorID)
		c.Request = c.Request.WithContext(auth.WithAuthor(c.Request.Context(), claims.Author()))
		c.Next()
	}
}

// RequireAuth middleware ensures an author is signed in
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.AuthorFrom(c.Request.Context()); !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
