package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/api/middleware"
	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/pkg/response"
)

// AuthHandler handles author identity requests
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// GetMe returns the author the request token belongs to
func (h *AuthHandler) GetMe(c *gin.Context) {
	author, ok := auth.AuthorFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	response.Success(c, gin.H{
		"author_id": middleware.GetAuthorID(c),
		"author":    author,
	})
}
