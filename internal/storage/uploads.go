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

func (p *Postgres) CreateUpload(ctx context.Context, u *models.Upload) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = models.UploadPending
	}
	err := p.q.QueryRowContext(ctx,
		`INSERT INTO uploads (id, user_id, storage_key, expiry, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		u.ID, u.UserID, u.StorageKey, u.Expiry, string(u.Status),
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

func (p *Postgres) FindUpload(ctx context.Context, id string) (models.Upload, error) {
	var (
		u      models.Upload
		status string
	)
	err := p.q.QueryRowContext(ctx,
		`SELECT id, user_id, storage_key, expiry, status, created_at FROM uploads WHERE id = $1`, id,
	).Scan(&u.ID, &u.UserID, &u.StorageKey, &u.Expiry, &status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Upload{}, apperr.NotFound("upload not found")
		}
		return models.Upload{}, fmt.Errorf("failed to select upload: %w", err)
	}
	u.Status = models.UploadStatus(status)
	return u, nil
}

// SetUploadStatus moves a pending upload to a terminal status. Uploads that
// already left pending are not touched.
func (p *Postgres) SetUploadStatus(ctx context.Context, id string, status models.UploadStatus) error {
	res, err := p.q.ExecContext(ctx,
		`UPDATE uploads SET status = $2 WHERE id = $1 AND status = 'pending'`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return apperr.BadRequest("upload is not pending")
	}
	return nil
}
