package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LoginPage renders the token sign-in form
func (h *WebHandler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login", gin.H{"Title": "Sign in"})
}

// WebLogin stores a valid author token in a cookie
func (h *WebHandler) WebLogin(c *gin.Context) {
	if h.deps.JWTManager == nil {
		c.Redirect(http.StatusSeeOther, "/editor")
		return
	}

	token := strings.TrimSpace(c.PostForm("token"))
	claims, err := h.deps.JWTManager.ValidateToken(token)
	if err != nil {
		h.render(c, http.StatusUnauthorized, "login", gin.H{
			"Title": "Sign in",
			"Error": "Invalid or expired token",
		})
		return
	}

	maxAge := 0
	if claims.ExpiresAt != nil {
		maxAge = int(claims.ExpiresAt.Time.Sub(h.now()).Seconds())
	}
	c.SetCookie(CookieAccessToken, token, maxAge, "/", "", false, true)
	h.logger.Info("Author signed in", "author_id", claims.AuthorID)
	c.Redirect(http.StatusSeeOther, "/editor")
}

// WebLogout clears the token cookie
func (h *WebHandler) WebLogout(c *gin.Context) {
	c.SetCookie(CookieAccessToken, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}
