package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"go.uber.org/zap"
)

const DefaultShareDays = 30

type ShareService struct {
	shares storage.ShareStore
	files  *FileService
	apiURL string
	now    func() time.Time
}

func NewShareService(shares storage.ShareStore, files *FileService, apiURL string) *ShareService {
	return &ShareService{
		shares: shares,
		files:  files,
		apiURL: strings.TrimRight(apiURL, "/"),
		now:    time.Now,
	}
}

func (s *ShareService) link(token string) models.ShareLink {
	return models.ShareLink{
		ShareURL: fmt.Sprintf("%s/api/files/shared/%s", s.apiURL, token),
		Token:    token,
	}
}

// Share returns the file's unexpired share link, creating one valid for
// days when none exists.
func (s *ShareService) Share(ctx context.Context, userID, fileID string, days int) (models.ShareLink, error) {
	fields := []zap.Field{zap.String("user_id", userID), zap.String("file_id", fileID)}
	if days <= 0 {
		days = DefaultShareDays
	}

	if _, err := s.files.files.FindActive(ctx, userID, fileID); err != nil {
		return models.ShareLink{}, passThrough(ctx, "failed to share file", err, fields...)
	}

	now := s.now()
	existing, err := s.shares.FindActiveShare(ctx, fileID, now.UnixMilli())
	switch {
	case err == nil:
		return s.link(existing.Token), nil
	case !apperr.Is(err, apperr.KindNotFound):
		return models.ShareLink{}, internal(ctx, "failed to share file", err, fields...)
	}

	token, err := newShareToken()
	if err != nil {
		return models.ShareLink{}, internal(ctx, "failed to share file", err, fields...)
	}
	share := &models.FileShare{
		UserID: userID,
		FileID: fileID,
		Token:  token,
		Expiry: now.Add(time.Duration(days) * 24 * time.Hour).UnixMilli(),
	}
	if err := s.shares.CreateShare(ctx, share); err != nil {
		return models.ShareLink{}, passThrough(ctx, "failed to share file", err, fields...)
	}
	return s.link(token), nil
}

func (s *ShareService) RevokeShare(ctx context.Context, userID, fileID string) error {
	fields := []zap.Field{zap.String("user_id", userID), zap.String("file_id", fileID)}
	if _, err := s.files.files.FindActive(ctx, userID, fileID); err != nil {
		return passThrough(ctx, "failed to revoke file share", err, fields...)
	}
	if err := s.shares.DeleteSharesByFile(ctx, fileID); err != nil {
		return internal(ctx, "failed to revoke file share", err, fields...)
	}
	return nil
}

// GetShared resolves a public token to the file and a presigned download.
// Trashed files are not served.
func (s *ShareService) GetShared(ctx context.Context, token string) (models.DownloadLink, error) {
	share, err := s.shares.FindShareByToken(ctx, token, s.now().UnixMilli())
	if err != nil {
		return models.DownloadLink{}, passThrough(ctx, "failed to retrieve shared file", err)
	}
	file, err := s.files.files.FindFile(ctx, share.FileID)
	if err != nil {
		return models.DownloadLink{}, passThrough(ctx, "failed to retrieve shared file", err, zap.String("file_id", share.FileID))
	}
	if file.Trashed() {
		return models.DownloadLink{}, apperr.NotFound("shared file no longer exists")
	}
	return s.files.downloadLink(ctx, file)
}

func newShareToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
