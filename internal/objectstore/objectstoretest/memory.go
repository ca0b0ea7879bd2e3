// Package objectstoretest provides an in-memory objectstore.Store for tests.
package objectstoretest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
)

type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// Per-operation failure injection, keyed by operation name
	// ("head", "download", "upload", "delete", "presign").
	Fail map[string]error
	// Deleted records every key passed to Delete, in order.
	Deleted []string
}

var _ objectstore.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		objects: map[string][]byte{},
		types:   map[string]string{},
		Fail:    map[string]error{},
	}
}

// Put seeds an object directly.
func (m *Memory) Put(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
}

// Object returns the stored bytes and whether key exists.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

func (m *Memory) fail(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fail[op]
}

func (m *Memory) Head(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	if err := m.fail("head"); err != nil {
		return objectstore.ObjectInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return objectstore.ObjectInfo{}, objectstore.ErrNotFound
	}
	return objectstore.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: m.types[key]}, nil
}

func (m *Memory) Download(ctx context.Context, key, localPath string) error {
	if err := m.fail("download"); err != nil {
		return err
	}
	b, ok := m.Object(key)
	if !ok {
		return fmt.Errorf("get object %s: %w", key, objectstore.ErrNotFound)
	}
	return os.WriteFile(localPath, b, 0o600)
}

func (m *Memory) Upload(ctx context.Context, localPath, key, contentType string) error {
	if err := m.fail("upload"); err != nil {
		return err
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.Put(key, b, contentType)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := m.fail("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *Memory) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := m.fail("presign"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://objects.test/%s?op=put&expires=%d", key, int(expiry.Seconds())), nil
}

func (m *Memory) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := m.fail("presign"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://objects.test/%s?op=get&expires=%d", key, int(expiry.Seconds())), nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.fail("ping")
}
