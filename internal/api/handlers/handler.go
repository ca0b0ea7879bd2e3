// Package handlers adapts the drive services to gin.
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	UserIDKey      = "user_id"
	TokenKey       = "token"
	TokenExpiryKey = "token_expiry"
)

type UploadService interface {
	CreateUpload(ctx context.Context, userID, fileName, contentType string, size int64) (models.PresignedUpload, error)
	CompleteUpload(ctx context.Context, userID, uploadID, fileName, declaredMIME string, folderID *string) (models.File, error)
}

type FileService interface {
	ListFiles(ctx context.Context, userID string, folderID *string) ([]models.FileView, error)
	ListTrash(ctx context.Context, userID string) ([]models.FileView, error)
	GetDownloadURL(ctx context.Context, userID, fileID string) (models.DownloadLink, error)
	Trash(ctx context.Context, userID, fileID string) error
	Restore(ctx context.Context, userID, fileID string) (models.File, error)
	Rename(ctx context.Context, userID, fileID, name string) (models.File, error)
	Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error)
	UsedStorage(ctx context.Context, userID string) (int64, error)
	PermanentDelete(ctx context.Context, userID, fileID string) error
}

type ShareService interface {
	Share(ctx context.Context, userID, fileID string, days int) (models.ShareLink, error)
	RevokeShare(ctx context.Context, userID, fileID string) error
	GetShared(ctx context.Context, token string) (models.DownloadLink, error)
}

type SessionService interface {
	Logout(ctx context.Context, token string, expiresAt time.Time)
}

// Pinger is a dependency probed by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	uploads  UploadService
	files    FileService
	shares   ShareService
	sessions SessionService
	checks   map[string]Pinger
	dbStats  func() sql.DBStats
}

type Deps struct {
	Uploads  UploadService
	Files    FileService
	Shares   ShareService
	Sessions SessionService
	// Checks are probed by GET /api/health, keyed by component name.
	Checks map[string]Pinger
	// DBStats reports connection pool usage. Optional.
	DBStats func() sql.DBStats
}

func New(d Deps) *Handler {
	return &Handler{
		uploads:  d.Uploads,
		files:    d.Files,
		shares:   d.Shares,
		sessions: d.Sessions,
		checks:   d.Checks,
		dbStats:  d.DBStats,
	}
}

func userIDFromContext(c *gin.Context) (string, bool) {
	id, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	s, ok := id.(string)
	return s, ok && s != ""
}

// requireUser aborts with 401 when the auth middleware did not run.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	}
	return userID, ok
}

// respondError maps an error kind to a status code. Internal errors are
// logged and reported generically.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if kind == apperr.KindInternal {
		logging.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
