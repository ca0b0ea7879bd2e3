package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinioStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinio connects to MinIO and creates the bucket when it is missing.
func NewMinio(ctx context.Context, cfg configuration.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logging.L().Info("[MinIO] created bucket", zap.String("bucket", cfg.BucketName))
	}

	logging.L().Info("[MinIO] connected", zap.String("endpoint", cfg.Endpoint))
	return &MinioStore{client: client, bucketName: cfg.BucketName}, nil
}

func (m *MinioStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	start := time.Now()
	info, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			metrics.RecordObjectStoreOperation("head_object", time.Since(start), true)
			return ObjectInfo{}, ErrNotFound
		}
		metrics.RecordObjectStoreOperation("head_object", time.Since(start), false)
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	metrics.RecordObjectStoreOperation("head_object", time.Since(start), true)
	return ObjectInfo{Key: key, Size: info.Size, ContentType: info.ContentType}, nil
}

func (m *MinioStore) Download(ctx context.Context, key, localPath string) error {
	start := time.Now()
	err := m.client.FGetObject(ctx, m.bucketName, key, localPath, minio.GetObjectOptions{})
	metrics.RecordObjectStoreOperation("get_object", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	return nil
}

func (m *MinioStore) Upload(ctx context.Context, localPath, key, contentType string) error {
	start := time.Now()
	_, err := m.client.FPutObject(ctx, m.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	metrics.RecordObjectStoreOperation("put_object", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil && !isMinioNotFound(err) {
		metrics.RecordObjectStoreOperation("delete_object", time.Since(start), false)
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	metrics.RecordObjectStoreOperation("delete_object", time.Since(start), true)
	logging.WithContext(ctx).Debug("[MinIO] deleted object", zap.String("key", key))
	return nil
}

func (m *MinioStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucketName)
	return err
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
