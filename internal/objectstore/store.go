// Package objectstore wraps the S3-compatible bucket holding blob content and
// thumbnails. Keys are opaque; the relational store owns their lifecycle.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
)

// ErrNotFound is returned by Head when the key does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

type Store interface {
	Head(ctx context.Context, key string) (ObjectInfo, error)
	// Download writes the object to localPath.
	Download(ctx context.Context, key, localPath string) error
	// Upload writes localPath to key, overwriting any existing object.
	Upload(ctx context.Context, localPath, key, contentType string) error
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Ping(ctx context.Context) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg configuration.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "minio":
		return NewMinio(ctx, cfg)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
