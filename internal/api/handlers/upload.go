package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type presignRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size" binding:"gte=0"`
}

type completeRequest struct {
	UploadID string  `json:"upload_id" binding:"required"`
	FileName string  `json:"file_name" binding:"required"`
	FileType string  `json:"file_type"`
	FolderID *string `json:"folder_id"`
}

// PresignUpload hands the client a presigned PUT for a new upload.
func (h *Handler) PresignUpload(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	upload, err := h.uploads.CreateUpload(c.Request.Context(), userID, req.FileName, req.FileType, req.FileSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// CompleteUpload registers the uploaded object as a file.
func (h *Handler) CompleteUpload(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	file, err := h.uploads.CompleteUpload(c.Request.Context(), userID, req.UploadID, req.FileName, req.FileType, req.FolderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "upload completed", "file": file})
}
