// Package services holds the drive's use cases: upload initiation and
// completion, file lifecycle, sharing and logout.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/queue"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UploadRepository interface {
	storage.UploadStore
	storage.Registrar
}

type UploadService struct {
	uploads       UploadRepository
	objects       objectstore.Store
	jobs          queue.Publisher
	tasks         *Background
	presignExpiry time.Duration
	now           func() time.Time
}

func NewUploadService(uploads UploadRepository, objects objectstore.Store, jobs queue.Publisher, tasks *Background, presignExpiry time.Duration) *UploadService {
	return &UploadService{
		uploads:       uploads,
		objects:       objects,
		jobs:          jobs,
		tasks:         tasks,
		presignExpiry: presignExpiry,
		now:           time.Now,
	}
}

// CreateUpload reserves a fresh storage key and returns a presigned PUT for it.
func (s *UploadService) CreateUpload(ctx context.Context, userID, fileName, contentType string, size int64) (models.PresignedUpload, error) {
	log := logging.WithContext(ctx).With(zap.String("user_id", userID), zap.String("file_name", fileName))

	key := uuid.NewString()
	url, err := s.objects.PresignPut(ctx, key, s.presignExpiry)
	if err != nil {
		log.Error("failed to presign upload", zap.Error(err))
		return models.PresignedUpload{}, apperr.Internal("failed to initialize upload", err)
	}

	upload := &models.Upload{
		UserID:     userID,
		StorageKey: key,
		Expiry:     s.now().Add(s.presignExpiry).UnixMilli(),
		Status:     models.UploadPending,
	}
	if err := s.uploads.CreateUpload(ctx, upload); err != nil {
		log.Error("failed to record upload", zap.Error(err))
		return models.PresignedUpload{}, apperr.Internal("failed to initialize upload", err)
	}

	return models.PresignedUpload{UploadID: upload.ID, PresignURL: url, Expiry: upload.Expiry}, nil
}

// CompleteUpload turns a pending upload whose object now exists into a File.
// Thumbnailable types get a job enqueued in the background.
func (s *UploadService) CompleteUpload(ctx context.Context, userID, uploadID, fileName, declaredMIME string, folderID *string) (models.File, error) {
	log := logging.WithContext(ctx).With(zap.String("user_id", userID), zap.String("upload_id", uploadID))

	upload, err := s.uploads.FindUpload(ctx, uploadID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		log.Error("failed to load upload", zap.Error(err))
		return models.File{}, apperr.Internal("failed to complete upload processing", err)
	}
	if err != nil || upload.UserID != userID || upload.Status != models.UploadPending {
		return models.File{}, apperr.BadRequest("invalid upload")
	}

	info, err := s.objects.Head(ctx, upload.StorageKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		if err := s.uploads.SetUploadStatus(ctx, uploadID, models.UploadFailed); err != nil {
			log.Error("failed to mark upload failed", zap.Error(err))
		}
		metrics.RecordUpload(false)
		return models.File{}, apperr.BadRequest("file not found in object storage")
	}
	if err != nil {
		log.Error("failed to verify uploaded object", zap.Error(err))
		return models.File{}, apperr.Internal("failed to complete upload processing", err)
	}

	file := &models.File{
		Name:     fileName,
		UserID:   userID,
		FolderID: folderID,
		Size:     info.Size,
		Type:     models.MediaTypeFromMIME(declaredMIME),
	}
	blob, err := s.uploads.RegisterUpload(ctx, uploadID, upload.StorageKey, file)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return models.File{}, err
		}
		log.Error("failed to register upload", zap.Error(err))
		return models.File{}, apperr.Internal("failed to complete upload processing", err)
	}
	metrics.RecordUpload(true)

	if file.Type.Thumbnailable() {
		job := models.ThumbnailJob{
			FileID:     file.ID,
			BlobID:     blob.ID,
			ContentKey: upload.StorageKey,
			Type:       string(file.Type),
		}
		s.tasks.Go(ctx, "enqueue-thumbnail", func(ctx context.Context) error {
			if err := queue.PublishJSON(ctx, s.jobs, queue.ThumbnailQueue, job); err != nil {
				metrics.RecordEnqueueFailure()
				return err
			}
			logging.WithContext(ctx).Info("published thumbnail job", zap.String("blob_id", job.BlobID))
			return nil
		})
	}

	return *file, nil
}
