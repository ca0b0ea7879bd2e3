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

const shareColumns = `id, user_id, file_id, token, expiry, created_at`

func scanShare(row rowScanner) (models.FileShare, error) {
	var s models.FileShare
	err := row.Scan(&s.ID, &s.UserID, &s.FileID, &s.Token, &s.Expiry, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FileShare{}, apperr.NotFound("invalid or expired share link")
	}
	if err != nil {
		return models.FileShare{}, fmt.Errorf("failed to select share: %w", err)
	}
	return s, nil
}

func (p *Postgres) CreateShare(ctx context.Context, s *models.FileShare) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := p.q.QueryRowContext(ctx,
		`INSERT INTO file_share (id, user_id, file_id, token, expiry)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		s.ID, s.UserID, s.FileID, s.Token, s.Expiry,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("share token already exists", err)
		}
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

// FindActiveShare returns a share of fileID that is still valid at nowMillis.
func (p *Postgres) FindActiveShare(ctx context.Context, fileID string, nowMillis int64) (models.FileShare, error) {
	return scanShare(p.q.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM file_share WHERE file_id = $1 AND expiry > $2
		ORDER BY expiry DESC LIMIT 1`, fileID, nowMillis))
}

func (p *Postgres) FindShareByToken(ctx context.Context, token string, nowMillis int64) (models.FileShare, error) {
	return scanShare(p.q.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM file_share WHERE token = $1 AND expiry > $2`, token, nowMillis))
}

func (p *Postgres) DeleteSharesByFile(ctx context.Context, fileID string) error {
	if _, err := p.q.ExecContext(ctx, `DELETE FROM file_share WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("failed to revoke shares: %w", err)
	}
	return nil
}
