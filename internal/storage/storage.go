// Package storage is the relational side of the drive: blob reference rows,
// file metadata, uploads and share tokens, all on PostgreSQL via lib/pq.
package storage

import (
	"context"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
)

// CleanupFunc is invoked by PermanentDelete before the transaction commits.
// A non-nil error rolls the whole deletion back.
type CleanupFunc func(ctx context.Context, blobID, contentKey string, hasThumbnail, isLast bool) error

// FileEntry is a file row joined with the thumbnail flag of its blob.
type FileEntry struct {
	models.File
	HasThumbnail bool
}

type BlobStore interface {
	CreateBlob(ctx context.Context, contentKey string, size int64) (models.Blob, error)
	FindBlob(ctx context.Context, id string) (models.Blob, error)
	FindBlobByKey(ctx context.Context, contentKey string) (models.Blob, error)
	DeleteBlob(ctx context.Context, id string) error
	MarkHasThumbnail(ctx context.Context, id string) error
}

type FileStore interface {
	CreateFile(ctx context.Context, f *models.File) error
	FindFile(ctx context.Context, id string) (models.File, error)
	FindActive(ctx context.Context, userID, id string) (models.File, error)
	FindTrashed(ctx context.Context, userID, id string) (models.File, error)
	ListActive(ctx context.Context, userID string, folderID *string) ([]FileEntry, error)
	ListTrashed(ctx context.Context, userID string) ([]FileEntry, error)
	Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error)
	Rename(ctx context.Context, userID, id, name string) (models.File, error)
	SoftDelete(ctx context.Context, userID, id string) error
	Restore(ctx context.Context, userID, id string) (models.File, error)
	CountByBlob(ctx context.Context, blobID string) (int, error)
	UsedStorage(ctx context.Context, userID string) (int64, error)
}

type UploadStore interface {
	CreateUpload(ctx context.Context, u *models.Upload) error
	FindUpload(ctx context.Context, id string) (models.Upload, error)
	SetUploadStatus(ctx context.Context, id string, status models.UploadStatus) error
}

type ShareStore interface {
	CreateShare(ctx context.Context, s *models.FileShare) error
	FindActiveShare(ctx context.Context, fileID string, nowMillis int64) (models.FileShare, error)
	FindShareByToken(ctx context.Context, token string, nowMillis int64) (models.FileShare, error)
	DeleteSharesByFile(ctx context.Context, fileID string) error
}

// Deleter runs the permanent-deletion unit of work. Only files that are in
// the trash when the transaction locks them are deleted.
type Deleter interface {
	PermanentDelete(ctx context.Context, fileID string, cleanup CleanupFunc) error
}
