package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type shareRequest struct {
	Days int `json:"days"`
}

func (h *Handler) ShareFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req shareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	link, err := h.shares.Share(c.Request.Context(), userID, c.Param("fileId"), req.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *Handler) RevokeShare(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.shares.RevokeShare(c.Request.Context(), userID, c.Param("fileId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "share revoked"})
}

// GetShared resolves a public share token. No authentication.
func (h *Handler) GetShared(c *gin.Context) {
	link, err := h.shares.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}
