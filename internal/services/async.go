package services

import (
	"context"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"go.uber.org/zap"
)

// Background runs best-effort work detached from the request that started
// it. Failures are logged and never reach the caller.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewBackground(timeout time.Duration) *Background {
	return &Background{timeout: timeout}
}

// Go runs fn with a context that keeps ctx's values but not its cancellation.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	log := logging.WithContext(ctx)
	detached := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(detached, b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Error("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every started task has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}
