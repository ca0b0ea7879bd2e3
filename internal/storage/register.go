package storage

import (
	"context"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/dbx"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
)

// Registrar records a verified upload.
type Registrar interface {
	RegisterUpload(ctx context.Context, uploadID, contentKey string, f *models.File) (models.Blob, error)
}

// RegisterUpload creates the blob and file rows for a verified object and
// marks the upload completed, all in one transaction. f.BlobID is set from
// the new blob and f.Size is used as the blob size.
func (p *Postgres) RegisterUpload(ctx context.Context, uploadID, contentKey string, f *models.File) (models.Blob, error) {
	var blob models.Blob
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		s := p.bind(tx)

		b, err := s.CreateBlob(ctx, contentKey, f.Size)
		if err != nil {
			return err
		}
		f.BlobID = b.ID

		if err := s.CreateFile(ctx, f); err != nil {
			return err
		}
		if err := s.SetUploadStatus(ctx, uploadID, models.UploadCompleted); err != nil {
			return err
		}
		blob = b
		return nil
	})
	return blob, err
}
