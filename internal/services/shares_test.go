package services

import (
	"context"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShareFixture() (*fakeDB, *ShareService) {
	db, _, files := newFileFixture()
	svc := NewShareService(db, files, "https://drive.example.com/")
	return db, svc
}

func TestShare_ReusesUnexpiredToken(t *testing.T) {
	db, svc := newShareFixture()
	ctx := context.Background()
	f := db.seedFile("u1", "a.pdf", "b1", "k1", 1, false)

	first, err := svc.Share(ctx, "u1", f.ID, 0)
	require.NoError(t, err)
	assert.Len(t, first.Token, 64)
	assert.Equal(t, "https://drive.example.com/api/files/shared/"+first.Token, first.ShareURL)

	second, err := svc.Share(ctx, "u1", f.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
}

func TestShare_ExpiredTokenIsReplaced(t *testing.T) {
	db, svc := newShareFixture()
	ctx := context.Background()
	f := db.seedFile("u1", "a.pdf", "b1", "k1", 1, false)

	start := time.Now()
	svc.now = func() time.Time { return start }
	first, err := svc.Share(ctx, "u1", f.ID, 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(48 * time.Hour) }
	_, err = svc.GetShared(ctx, first.Token)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	second, err := svc.Share(ctx, "u1", f.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestShare_NotOwned(t *testing.T) {
	db, svc := newShareFixture()
	f := db.seedFile("u1", "a.pdf", "b1", "k1", 1, false)

	_, err := svc.Share(context.Background(), "u2", f.ID, 0)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetShared_ResolvesAndRevokes(t *testing.T) {
	db, svc := newShareFixture()
	ctx := context.Background()
	f := db.seedFile("u1", "a.pdf", "b1", "k1", 1, false)

	link, err := svc.Share(ctx, "u1", f.ID, 0)
	require.NoError(t, err)

	shared, err := svc.GetShared(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, f.ID, shared.File.ID)
	assert.Contains(t, shared.DownloadURL, "k1?op=get")

	require.NoError(t, svc.RevokeShare(ctx, "u1", f.ID))
	_, err = svc.GetShared(ctx, link.Token)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetShared_TrashedFileIsHidden(t *testing.T) {
	db, svc := newShareFixture()
	ctx := context.Background()
	f := db.seedFile("u1", "a.pdf", "b1", "k1", 1, false)

	link, err := svc.Share(ctx, "u1", f.ID, 0)
	require.NoError(t, err)
	require.NoError(t, db.SoftDelete(ctx, "u1", f.ID))

	_, err = svc.GetShared(ctx, link.Token)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
