package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"github.com/google/uuid"
)

// fakeDB is an in-memory stand-in for storage.Postgres.
type fakeDB struct {
	mu      sync.Mutex
	blobs   map[string]models.Blob
	files   map[string]models.File
	uploads map[string]models.Upload
	shares  map[string]models.FileShare
}

var (
	_ UploadRepository   = (*fakeDB)(nil)
	_ FileRepository     = (*fakeDB)(nil)
	_ storage.ShareStore = (*fakeDB)(nil)
)

func newFakeDB() *fakeDB {
	return &fakeDB{
		blobs:   map[string]models.Blob{},
		files:   map[string]models.File{},
		uploads: map[string]models.Upload{},
		shares:  map[string]models.FileShare{},
	}
}

func (db *fakeDB) CreateUpload(ctx context.Context, u *models.Upload) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	db.uploads[u.ID] = *u
	return nil
}

func (db *fakeDB) FindUpload(ctx context.Context, id string) (models.Upload, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.uploads[id]
	if !ok {
		return models.Upload{}, apperr.NotFound("upload not found")
	}
	return u, nil
}

func (db *fakeDB) SetUploadStatus(ctx context.Context, id string, status models.UploadStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.setUploadStatus(id, status)
}

func (db *fakeDB) setUploadStatus(id string, status models.UploadStatus) error {
	u, ok := db.uploads[id]
	if !ok || u.Status != models.UploadPending {
		return apperr.BadRequest("upload is not pending")
	}
	u.Status = status
	db.uploads[id] = u
	return nil
}

func (db *fakeDB) RegisterUpload(ctx context.Context, uploadID, contentKey string, f *models.File) (models.Blob, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, b := range db.blobs {
		if b.ContentKey == contentKey {
			return models.Blob{}, apperr.Conflict("blob already exists for content key", nil)
		}
	}
	if u, ok := db.uploads[uploadID]; !ok || u.Status != models.UploadPending {
		return models.Blob{}, apperr.BadRequest("upload is not pending")
	}
	b := models.Blob{ID: uuid.NewString(), ContentKey: contentKey, Size: f.Size}
	db.blobs[b.ID] = b
	f.BlobID = b.ID
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	db.files[f.ID] = *f
	_ = db.setUploadStatus(uploadID, models.UploadCompleted)
	return b, nil
}

func (db *fakeDB) CreateBlob(ctx context.Context, contentKey string, size int64) (models.Blob, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := models.Blob{ID: uuid.NewString(), ContentKey: contentKey, Size: size}
	db.blobs[b.ID] = b
	return b, nil
}

func (db *fakeDB) FindBlob(ctx context.Context, id string) (models.Blob, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b, ok := db.blobs[id]
	if !ok {
		return models.Blob{}, apperr.NotFound("blob not found")
	}
	return b, nil
}

func (db *fakeDB) FindBlobByKey(ctx context.Context, contentKey string) (models.Blob, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, b := range db.blobs {
		if b.ContentKey == contentKey {
			return b, nil
		}
	}
	return models.Blob{}, apperr.NotFound("blob not found")
}

func (db *fakeDB) DeleteBlob(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.blobs, id)
	return nil
}

func (db *fakeDB) MarkHasThumbnail(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	b, ok := db.blobs[id]
	if !ok {
		return apperr.NotFound("blob not found")
	}
	b.HasThumbnail = true
	db.blobs[id] = b
	return nil
}

func (db *fakeDB) CreateFile(ctx context.Context, f *models.File) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now()
	db.files[f.ID] = *f
	return nil
}

func (db *fakeDB) FindFile(ctx context.Context, id string) (models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.files[id]
	if !ok {
		return models.File{}, apperr.NotFound("file not found")
	}
	return f, nil
}

func (db *fakeDB) find(userID, id string, trashed bool) (models.File, bool) {
	f, ok := db.files[id]
	if !ok || f.UserID != userID || f.Trashed() != trashed {
		return models.File{}, false
	}
	return f, true
}

func (db *fakeDB) FindActive(ctx context.Context, userID, id string) (models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.find(userID, id, false)
	if !ok {
		return models.File{}, apperr.NotFound("file not found")
	}
	return f, nil
}

func (db *fakeDB) FindTrashed(ctx context.Context, userID, id string) (models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.find(userID, id, true)
	if !ok {
		return models.File{}, apperr.NotFound("file not found in trash")
	}
	return f, nil
}

func (db *fakeDB) entries(match func(models.File) bool) []storage.FileEntry {
	var out []storage.FileEntry
	for _, f := range db.files {
		if match(f) {
			out = append(out, storage.FileEntry{File: f, HasThumbnail: db.blobs[f.BlobID].HasThumbnail})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (db *fakeDB) ListActive(ctx context.Context, userID string, folderID *string) ([]storage.FileEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.entries(func(f models.File) bool {
		if f.UserID != userID || f.Trashed() {
			return false
		}
		if folderID == nil {
			return f.FolderID == nil
		}
		return f.FolderID != nil && *f.FolderID == *folderID
	}), nil
}

func (db *fakeDB) ListTrashed(ctx context.Context, userID string) ([]storage.FileEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.entries(func(f models.File) bool { return f.UserID == userID && f.Trashed() }), nil
}

func (db *fakeDB) Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.File
	for _, e := range db.entries(func(f models.File) bool {
		return f.UserID == userID && !f.Trashed() && strings.Contains(strings.ToLower(f.Name), strings.ToLower(query))
	}) {
		out = append(out, e.File)
	}
	if offset >= len(out) {
		return []models.File{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (db *fakeDB) Rename(ctx context.Context, userID, id, name string) (models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.find(userID, id, false)
	if !ok {
		return models.File{}, apperr.NotFound("file not found")
	}
	f.Name = name
	db.files[id] = f
	return f, nil
}

func (db *fakeDB) SoftDelete(ctx context.Context, userID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.find(userID, id, false)
	if !ok {
		return apperr.NotFound("file not found")
	}
	now := time.Now()
	f.DeletedAt = &now
	db.files[id] = f
	return nil
}

func (db *fakeDB) Restore(ctx context.Context, userID, id string) (models.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, ok := db.find(userID, id, true)
	if !ok {
		return models.File{}, apperr.NotFound("file not found in trash")
	}
	f.DeletedAt = nil
	db.files[id] = f
	return f, nil
}

func (db *fakeDB) CountByBlob(ctx context.Context, blobID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.countByBlob(blobID), nil
}

func (db *fakeDB) countByBlob(blobID string) int {
	n := 0
	for _, f := range db.files {
		if f.BlobID == blobID {
			n++
		}
	}
	return n
}

func (db *fakeDB) UsedStorage(ctx context.Context, userID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var total int64
	for _, f := range db.files {
		if f.UserID == userID && !f.Trashed() {
			total += f.Size
		}
	}
	return total, nil
}

// PermanentDelete holds the lock for the whole unit of work and restores the
// removed rows when cleanup fails.
func (db *fakeDB) PermanentDelete(ctx context.Context, fileID string, cleanup storage.CleanupFunc) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	f, ok := db.files[fileID]
	if !ok || f.DeletedAt == nil {
		return apperr.NotFound("file not found in trash")
	}
	b, hasBlob := db.blobs[f.BlobID]

	delete(db.files, fileID)
	if !hasBlob {
		return nil
	}
	isLast := db.countByBlob(b.ID) == 0
	if isLast {
		delete(db.blobs, b.ID)
	}

	if err := cleanup(ctx, b.ID, b.ContentKey, b.HasThumbnail, isLast); err != nil {
		db.files[fileID] = f
		db.blobs[b.ID] = b
		return err
	}
	return nil
}

func (db *fakeDB) CreateShare(ctx context.Context, s *models.FileShare) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	db.shares[s.Token] = *s
	return nil
}

func (db *fakeDB) FindActiveShare(ctx context.Context, fileID string, nowMillis int64) (models.FileShare, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.shares {
		if s.FileID == fileID && s.Expiry > nowMillis {
			return s, nil
		}
	}
	return models.FileShare{}, apperr.NotFound("invalid or expired share link")
}

func (db *fakeDB) FindShareByToken(ctx context.Context, token string, nowMillis int64) (models.FileShare, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.shares[token]
	if !ok || s.Expiry <= nowMillis {
		return models.FileShare{}, apperr.NotFound("invalid or expired share link")
	}
	return s, nil
}

func (db *fakeDB) DeleteSharesByFile(ctx context.Context, fileID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for token, s := range db.shares {
		if s.FileID == fileID {
			delete(db.shares, token)
		}
	}
	return nil
}

// seedFile inserts a blob (if new) and an active file pointing at it.
func (db *fakeDB) seedFile(userID, name, blobID, contentKey string, size int64, hasThumbnail bool) models.File {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.blobs[blobID]; !ok {
		db.blobs[blobID] = models.Blob{ID: blobID, ContentKey: contentKey, Size: size, HasThumbnail: hasThumbnail}
	}
	f := models.File{
		ID:        uuid.NewString(),
		Name:      name,
		BlobID:    blobID,
		UserID:    userID,
		Size:      size,
		Type:      models.MediaTypeFromMIME(name),
		CreatedAt: time.Now(),
	}
	db.files[f.ID] = f
	return f
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	bodies [][]byte
	queues []string
}

func (p *fakePublisher) Publish(ctx context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.queues = append(p.queues, queue)
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.bodies...)
}
