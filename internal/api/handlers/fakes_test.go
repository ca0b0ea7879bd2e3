package handlers

import (
	"context"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
)

type fakeUploads struct {
	created   models.PresignedUpload
	completed models.File
	err       error

	gotFolder *string
	gotMIME   string
}

func (f *fakeUploads) CreateUpload(ctx context.Context, userID, fileName, contentType string, size int64) (models.PresignedUpload, error) {
	return f.created, f.err
}

func (f *fakeUploads) CompleteUpload(ctx context.Context, userID, uploadID, fileName, declaredMIME string, folderID *string) (models.File, error) {
	f.gotFolder = folderID
	f.gotMIME = declaredMIME
	return f.completed, f.err
}

type fakeFiles struct {
	views []models.FileView
	file  models.File
	link  models.DownloadLink
	used  int64
	err   error

	gotUser   string
	gotFile   string
	gotFolder *string
	gotQuery  string
	gotOffset int
	gotLimit  int
	gotName   string
}

func (f *fakeFiles) ListFiles(ctx context.Context, userID string, folderID *string) ([]models.FileView, error) {
	f.gotUser, f.gotFolder = userID, folderID
	return f.views, f.err
}

func (f *fakeFiles) ListTrash(ctx context.Context, userID string) ([]models.FileView, error) {
	f.gotUser = userID
	return f.views, f.err
}

func (f *fakeFiles) GetDownloadURL(ctx context.Context, userID, fileID string) (models.DownloadLink, error) {
	f.gotUser, f.gotFile = userID, fileID
	return f.link, f.err
}

func (f *fakeFiles) Trash(ctx context.Context, userID, fileID string) error {
	f.gotUser, f.gotFile = userID, fileID
	return f.err
}

func (f *fakeFiles) Restore(ctx context.Context, userID, fileID string) (models.File, error) {
	f.gotUser, f.gotFile = userID, fileID
	return f.file, f.err
}

func (f *fakeFiles) Rename(ctx context.Context, userID, fileID, name string) (models.File, error) {
	f.gotUser, f.gotFile, f.gotName = userID, fileID, name
	return f.file, f.err
}

func (f *fakeFiles) Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error) {
	f.gotUser, f.gotQuery, f.gotOffset, f.gotLimit = userID, query, offset, limit
	return []models.File{f.file}, f.err
}

func (f *fakeFiles) UsedStorage(ctx context.Context, userID string) (int64, error) {
	f.gotUser = userID
	return f.used, f.err
}

func (f *fakeFiles) PermanentDelete(ctx context.Context, userID, fileID string) error {
	f.gotUser, f.gotFile = userID, fileID
	return f.err
}

type fakeShares struct {
	link     models.ShareLink
	download models.DownloadLink
	err      error
	gotDays  int
	gotToken string
}

func (f *fakeShares) Share(ctx context.Context, userID, fileID string, days int) (models.ShareLink, error) {
	f.gotDays = days
	return f.link, f.err
}

func (f *fakeShares) RevokeShare(ctx context.Context, userID, fileID string) error {
	return f.err
}

func (f *fakeShares) GetShared(ctx context.Context, token string) (models.DownloadLink, error) {
	f.gotToken = token
	return f.download, f.err
}

type fakeSessions struct {
	token     string
	expiresAt time.Time
	calls     int
}

func (f *fakeSessions) Logout(ctx context.Context, token string, expiresAt time.Time) {
	f.calls++
	f.token, f.expiresAt = token, expiresAt
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }
