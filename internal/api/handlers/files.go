package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func (h *Handler) ListFiles(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var folderID *string
	if f := c.Query("folder_id"); f != "" {
		folderID = &f
	}

	files, err := h.files.ListFiles(c.Request.Context(), userID, folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) ListTrash(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	files, err := h.files.ListTrash(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) SearchFiles(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	files, err := h.files.Search(c.Request.Context(), userID, c.Query("querystring"), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "offset": offset, "limit": limit})
}

// GetFile returns the file's metadata with a presigned download URL.
func (h *Handler) GetFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	link, err := h.files.GetDownloadURL(c.Request.Context(), userID, c.Param("fileId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// TrashFile soft-deletes a file.
func (h *Handler) TrashFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileID := c.Param("fileId")
	if err := h.files.Trash(c.Request.Context(), userID, fileID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file moved to trash", "file_id": fileID})
}

func (h *Handler) RestoreFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	file, err := h.files.Restore(c.Request.Context(), userID, c.Param("fileId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// PermanentDelete removes a trashed file and, with its last reference, the
// underlying blob.
func (h *Handler) PermanentDelete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileID := c.Param("fileId")
	if err := h.files.PermanentDelete(c.Request.Context(), userID, fileID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted permanently", "file_id": fileID})
}

func (h *Handler) RenameFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	file, err := h.files.Rename(c.Request.Context(), userID, c.Param("fileId"), c.Query("newname"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *Handler) UsedStorage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	used, err := h.files.UsedStorage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"used_bytes": used})
}
