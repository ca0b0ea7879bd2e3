package storage

import (
	"context"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/dbx"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"go.uber.org/zap"
)

// PermanentDelete removes a trashed file row and, when it held the last
// reference, the blob row, as one transaction. The file row must still be in
// the trash once locked; otherwise the call is NotFound. The blob row is
// locked before counting so concurrent deletes of sibling files serialize and
// exactly one sees isLast. cleanup runs before commit; its error rolls
// everything back.
func (p *Postgres) PermanentDelete(ctx context.Context, fileID string, cleanup CleanupFunc) error {
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		s := p.bind(tx)

		file, err := s.lockTrashedFile(ctx, fileID)
		if err != nil {
			return err
		}

		blob, err := s.lockBlob(ctx, file.BlobID)
		blobMissing := apperr.Is(err, apperr.KindNotFound)
		if err != nil && !blobMissing {
			return err
		}

		if err := s.deleteFile(ctx, file.ID); err != nil {
			return err
		}

		if blobMissing {
			logging.WithContext(ctx).Warn("[Postgres] file referenced a missing blob",
				zap.String("file_id", file.ID), zap.String("blob_id", file.BlobID))
			return nil
		}

		remaining, err := s.CountByBlob(ctx, blob.ID)
		if err != nil {
			return err
		}
		isLast := remaining == 0

		if isLast {
			if err := s.DeleteBlob(ctx, blob.ID); err != nil {
				return err
			}
		}

		return cleanup(ctx, blob.ID, blob.ContentKey, blob.HasThumbnail, isLast)
	})
}
