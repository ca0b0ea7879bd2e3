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

const blobColumns = `id, s3_key, size, has_thumbnail`

func scanBlob(row interface{ Scan(...any) error }) (models.Blob, error) {
	var b models.Blob
	err := row.Scan(&b.ID, &b.ContentKey, &b.Size, &b.HasThumbnail)
	return b, err
}

// CreateBlob registers a physical object. A second blob with the same content
// key is a Conflict.
func (p *Postgres) CreateBlob(ctx context.Context, contentKey string, size int64) (models.Blob, error) {
	b := models.Blob{ID: uuid.NewString(), ContentKey: contentKey, Size: size}
	_, err := p.q.ExecContext(ctx,
		`INSERT INTO blobs (id, s3_key, size, has_thumbnail) VALUES ($1, $2, $3, false)`,
		b.ID, b.ContentKey, b.Size)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Blob{}, apperr.Conflict("blob already exists for content key", err)
		}
		return models.Blob{}, fmt.Errorf("failed to create blob: %w", err)
	}
	return b, nil
}

func (p *Postgres) FindBlob(ctx context.Context, id string) (models.Blob, error) {
	b, err := scanBlob(p.q.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id = $1`, id))
	return b, blobErr(err)
}

func (p *Postgres) FindBlobByKey(ctx context.Context, contentKey string) (models.Blob, error) {
	b, err := scanBlob(p.q.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE s3_key = $1`, contentKey))
	return b, blobErr(err)
}

// lockBlob reads the blob row with a row lock held until the enclosing
// transaction ends.
func (p *Postgres) lockBlob(ctx context.Context, id string) (models.Blob, error) {
	b, err := scanBlob(p.q.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id = $1 FOR UPDATE`, id))
	return b, blobErr(err)
}

func (p *Postgres) DeleteBlob(ctx context.Context, id string) error {
	if _, err := p.q.ExecContext(ctx, `DELETE FROM blobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// MarkHasThumbnail is idempotent; setting the flag twice is not an error.
func (p *Postgres) MarkHasThumbnail(ctx context.Context, id string) error {
	res, err := p.q.ExecContext(ctx, `UPDATE blobs SET has_thumbnail = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark thumbnail: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("blob not found")
	}
	return nil
}

func blobErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("blob not found")
	default:
		return fmt.Errorf("failed to select blob: %w", err)
	}
}
