package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/google/uuid"
)

const fileColumns = `f.id, f.name, f.blob_id, f.user_id, f.folder_id, f.size, f.type, f.created_at, f.deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner, extra ...any) (models.File, error) {
	var (
		f        models.File
		folderID sql.NullString
		deleted  sql.NullTime
		fileType string
	)
	dest := append([]any{&f.ID, &f.Name, &f.BlobID, &f.UserID, &folderID, &f.Size, &fileType, &f.CreatedAt, &deleted}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.File{}, err
	}
	if folderID.Valid {
		f.FolderID = &folderID.String
	}
	if deleted.Valid {
		f.DeletedAt = &deleted.Time
	}
	f.Type = models.MediaType(fileType)
	return f, nil
}

func (p *Postgres) CreateFile(ctx context.Context, f *models.File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := p.q.QueryRowContext(ctx,
		`INSERT INTO files (id, name, blob_id, user_id, folder_id, size, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		f.ID, f.Name, f.BlobID, f.UserID, f.FolderID, f.Size, string(f.Type),
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// FindFile returns the row regardless of owner or trash state.
func (p *Postgres) FindFile(ctx context.Context, id string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files f WHERE f.id = $1`, id))
	return f, fileErr(err, "file not found")
}

func (p *Postgres) FindActive(ctx context.Context, userID, id string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files f WHERE f.id = $1 AND f.user_id = $2 AND f.deleted_at IS NULL`,
		id, userID))
	return f, fileErr(err, "file not found")
}

func (p *Postgres) FindTrashed(ctx context.Context, userID, id string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files f WHERE f.id = $1 AND f.user_id = $2 AND f.deleted_at IS NOT NULL`,
		id, userID))
	return f, fileErr(err, "file not found in trash")
}

// lockTrashedFile loads a soft-deleted file and locks its row, so a
// concurrent Restore either commits first or waits for the caller's
// transaction.
func (p *Postgres) lockTrashedFile(ctx context.Context, id string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files f WHERE f.id = $1 AND f.deleted_at IS NOT NULL FOR UPDATE`, id))
	return f, fileErr(err, "file not found in trash")
}

// ListActive returns active files in folderID, or in the root when folderID is nil.
func (p *Postgres) ListActive(ctx context.Context, userID string, folderID *string) ([]FileEntry, error) {
	query := `SELECT ` + fileColumns + `, b.has_thumbnail FROM files f JOIN blobs b ON b.id = f.blob_id
		WHERE f.user_id = $1 AND f.deleted_at IS NULL AND f.folder_id IS NULL
		ORDER BY f.created_at DESC`
	args := []any{userID}
	if folderID != nil {
		query = `SELECT ` + fileColumns + `, b.has_thumbnail FROM files f JOIN blobs b ON b.id = f.blob_id
		WHERE f.user_id = $1 AND f.deleted_at IS NULL AND f.folder_id = $2
		ORDER BY f.created_at DESC`
		args = append(args, *folderID)
	}
	return p.queryEntries(ctx, query, args...)
}

func (p *Postgres) ListTrashed(ctx context.Context, userID string) ([]FileEntry, error) {
	return p.queryEntries(ctx,
		`SELECT `+fileColumns+`, b.has_thumbnail FROM files f JOIN blobs b ON b.id = f.blob_id
		WHERE f.user_id = $1 AND f.deleted_at IS NOT NULL
		ORDER BY f.deleted_at DESC`, userID)
}

func (p *Postgres) queryEntries(ctx context.Context, query string, args ...any) ([]FileEntry, error) {
	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []FileEntry{}
	for rows.Next() {
		var e FileEntry
		f, err := scanFile(rows, &e.HasThumbnail)
		if err != nil {
			return nil, err
		}
		e.File = f
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Search matches active file names case-insensitively.
func (p *Postgres) Search(ctx context.Context, userID, query string, offset, limit int) ([]models.File, error) {
	rows, err := p.q.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files f
		WHERE f.user_id = $1 AND f.name ILIKE $2 AND f.deleted_at IS NULL
		ORDER BY f.name LIMIT $3 OFFSET $4`,
		userID, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer rows.Close()

	result := []models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Postgres) Rename(ctx context.Context, userID, id, name string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx,
		`UPDATE files f SET name = $3 WHERE f.id = $1 AND f.user_id = $2 AND f.deleted_at IS NULL
		RETURNING `+fileColumns, id, userID, name))
	return f, fileErr(err, "file not found")
}

func (p *Postgres) SoftDelete(ctx context.Context, userID, id string) error {
	res, err := p.q.ExecContext(ctx,
		`UPDATE files SET deleted_at = NOW() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to trash file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("file not found")
	}
	return nil
}

func (p *Postgres) Restore(ctx context.Context, userID, id string) (models.File, error) {
	f, err := scanFile(p.q.QueryRowContext(ctx,
		`UPDATE files f SET deleted_at = NULL WHERE f.id = $1 AND f.user_id = $2 AND f.deleted_at IS NOT NULL
		RETURNING `+fileColumns, id, userID))
	return f, fileErr(err, "file not found in trash")
}

// CountByBlob counts every file row pointing at blobID, trashed ones included.
func (p *Postgres) CountByBlob(ctx context.Context, blobID string) (int, error) {
	var n int
	if err := p.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE blob_id = $1`, blobID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

func (p *Postgres) UsedStorage(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := p.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id = $1 AND deleted_at IS NULL`,
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum storage: %w", err)
	}
	return total, nil
}

func (p *Postgres) deleteFile(ctx context.Context, id string) error {
	if _, err := p.q.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func fileErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(notFound)
	default:
		return fmt.Errorf("failed to select file: %w", err)
	}
}
