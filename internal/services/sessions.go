package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RevocationStore remembers revoked bearer tokens until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type RedisRevocations struct {
	client redis.Cmdable
}

func NewRedisRevocations(client redis.Cmdable) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func revokedKey(tokenHash string) string {
	return "revoked:" + tokenHash
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedKey(tokenHash), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", revokedKey(tokenHash), err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	err := r.client.Get(ctx, revokedKey(tokenHash)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type SessionService struct {
	store RevocationStore
	tasks *Background
	now   func() time.Time
}

func NewSessionService(store RevocationStore, tasks *Background) *SessionService {
	return &SessionService{store: store, tasks: tasks, now: time.Now}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Logout revokes token in the background. Failures are logged only.
func (s *SessionService) Logout(ctx context.Context, token string, expiresAt time.Time) {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	hash := hashToken(token)
	s.tasks.Go(ctx, "revoke-session", func(ctx context.Context) error {
		return s.store.Revoke(ctx, hash, ttl)
	})
}

// IsRevoked fails open: when the store cannot be reached the token is
// treated as valid and a warning is logged.
func (s *SessionService) IsRevoked(ctx context.Context, token string) bool {
	revoked, err := s.store.IsRevoked(ctx, hashToken(token))
	if err != nil {
		logging.WithContext(ctx).Warn("revocation check failed", zap.Error(err))
		return false
	}
	return revoked
}
