package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Logout revokes the caller's bearer token. Revocation happens in the
// background, so the response does not depend on it succeeding.
func (h *Handler) Logout(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	token := c.GetString(TokenKey)
	expiry, _ := c.Get(TokenExpiryKey)
	expiresAt, _ := expiry.(time.Time)
	if token != "" {
		h.sessions.Logout(c.Request.Context(), token, expiresAt)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
