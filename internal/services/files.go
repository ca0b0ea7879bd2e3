package services

import (
	"context"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"go.uber.org/zap"
)

// linkExpiry bounds every presigned GET handed to clients.
const linkExpiry = time.Hour

// objectDeleteTimeout bounds each object-store delete made while the blob
// row is locked.
const objectDeleteTimeout = 30 * time.Second

type FileRepository interface {
	storage.FileStore
	storage.BlobStore
	storage.Deleter
}

type FileService struct {
	files         FileRepository
	objects       objectstore.Store
	deleteTimeout time.Duration
}

func NewFileService(files FileRepository, objects objectstore.Store) *FileService {
	return &FileService{files: files, objects: objects, deleteTimeout: objectDeleteTimeout}
}

// internal logs err with the request logger and returns a generic error.
func internal(ctx context.Context, msg string, err error, fields ...zap.Field) error {
	logging.WithContext(ctx).Error(msg, append(fields, zap.Error(err))...)
	return apperr.Internal(msg, err)
}

// passThrough keeps classified errors and hides everything else.
func passThrough(ctx context.Context, msg string, err error, fields ...zap.Field) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return internal(ctx, msg, err, fields...)
}

func (s *FileService) ListFiles(ctx context.Context, userID string, folderID *string) ([]models.FileView, error) {
	entries, err := s.files.ListActive(ctx, userID, folderID)
	if err != nil {
		return nil, internal(ctx, "failed to retrieve files", err, zap.String("user_id", userID))
	}
	logging.WithContext(ctx).Debug("listed files", zap.Int("count", len(entries)), zap.String("user_id", userID))
	return s.withThumbnails(ctx, entries)
}

func (s *FileService) ListTrash(ctx context.Context, userID string) ([]models.FileView, error) {
	entries, err := s.files.ListTrashed(ctx, userID)
	if err != nil {
		return nil, internal(ctx, "failed to retrieve trash", err, zap.String("user_id", userID))
	}
	return s.withThumbnails(ctx, entries)
}

func (s *FileService) withThumbnails(ctx context.Context, entries []storage.FileEntry) ([]models.FileView, error) {
	views := make([]models.FileView, 0, len(entries))
	for _, e := range entries {
		view := models.FileView{File: e.File}
		if e.HasThumbnail {
			url, err := s.objects.PresignGet(ctx, models.ThumbnailKey(e.BlobID), linkExpiry)
			if err != nil {
				return nil, internal(ctx, "failed to sign thumbnail url", err, zap.String("blob_id", e.BlobID))
			}
			view.ThumbnailURL = &url
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *FileService) GetDownloadURL(ctx context.Context, userID, fileID string) (models.DownloadLink, error) {
	file, err := s.files.FindActive(ctx, userID, fileID)
	if err != nil {
		return models.DownloadLink{}, passThrough(ctx, "failed to retrieve file", err, zap.String("file_id", fileID))
	}
	return s.downloadLink(ctx, file)
}

func (s *FileService) downloadLink(ctx context.Context, file models.File) (models.DownloadLink, error) {
	blob, err := s.files.FindBlob(ctx, file.BlobID)
	if err != nil {
		return models.DownloadLink{}, passThrough(ctx, "failed to retrieve file", err, zap.String("file_id", file.ID))
	}
	url, err := s.objects.PresignGet(ctx, blob.ContentKey, linkExpiry)
	if err != nil {
		return models.DownloadLink{}, internal(ctx, "failed to retrieve file", err, zap.String("file_id", file.ID))
	}
	return models.DownloadLink{File: file, DownloadURL: url}, nil
}

// Trash soft-deletes an active file.
func (s *FileService) Trash(ctx context.Context, userID, fileID string) error {
	if err := s.files.SoftDelete(ctx, userID, fileID); err != nil {
		return passThrough(ctx, "failed to delete file", err, zap.String("file_id", fileID))
	}
	return nil
}

func (s *FileService) Restore(ctx context.Context, userID, fileID string) (models.File, error) {
	f, err := s.files.Restore(ctx, userID, fileID)
	if err != nil {
		return models.File{}, passThrough(ctx, "failed to restore file", err, zap.String("file_id", fileID))
	}
	return f, nil
}

func (s *FileService) Rename(ctx context.Context, userID, fileID, name string) (models.File, error) {
	if name == "" {
		return models.File{}, apperr.BadRequest("new name is required")
	}
	f, err := s.files.Rename(ctx, userID, fileID, name)
	if err != nil {
		return models.File{}, passThrough(ctx, "failed to rename file", err, zap.String("file_id", fileID))
	}
	return f, nil
}

func (s *FileService) Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error) {
	files, err := s.files.Search(ctx, userID, query, offset, limit)
	if err != nil {
		return nil, internal(ctx, "failed to search files", err, zap.String("query", query))
	}
	return files, nil
}

func (s *FileService) UsedStorage(ctx context.Context, userID string) (int64, error) {
	used, err := s.files.UsedStorage(ctx, userID)
	if err != nil {
		return 0, internal(ctx, "failed to compute storage usage", err, zap.String("user_id", userID))
	}
	return used, nil
}

// PermanentDelete removes a trashed file for good. The blob and its objects
// go only with the last reference.
func (s *FileService) PermanentDelete(ctx context.Context, userID, fileID string) error {
	if _, err := s.files.FindTrashed(ctx, userID, fileID); err != nil {
		return passThrough(ctx, "failed to permanently delete file", err, zap.String("file_id", fileID))
	}

	var reclaimed bool
	err := s.files.PermanentDelete(ctx, fileID, func(ctx context.Context, blobID, contentKey string, hasThumbnail, isLast bool) error {
		reclaimed = isLast
		return s.cleanupObjects(ctx, blobID, contentKey, hasThumbnail, isLast)
	})
	if err != nil {
		return passThrough(ctx, "failed to permanently delete file", err, zap.String("file_id", fileID))
	}
	metrics.RecordPermanentDelete(reclaimed)
	return nil
}

// cleanupObjects removes a reclaimed blob's content and thumbnail. Shared
// blobs are left alone. The thumbnail key is deleted even when the flag is
// unset, since a worker may have uploaded it without managing to mark the
// blob.
func (s *FileService) cleanupObjects(ctx context.Context, blobID, contentKey string, hasThumbnail, isLast bool) error {
	if !isLast {
		return nil
	}
	log := logging.WithContext(ctx).With(zap.String("blob_id", blobID), zap.Bool("has_thumbnail", hasThumbnail))

	log.Info("deleting blob object", zap.String("key", contentKey))
	if err := s.deleteObject(ctx, contentKey); err != nil {
		return err
	}
	thumbKey := models.ThumbnailKey(blobID)
	log.Info("deleting thumbnail object", zap.String("key", thumbKey))
	return s.deleteObject(ctx, thumbKey)
}

func (s *FileService) deleteObject(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.deleteTimeout)
	defer cancel()
	return s.objects.Delete(ctx, key)
}
