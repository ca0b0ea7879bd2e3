package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/queue"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/scan"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const thumbnailContentType = "image/jpeg"

// BlobMarker records that a blob's thumbnail exists.
type BlobMarker interface {
	MarkHasThumbnail(ctx context.Context, id string) error
}

// ErrInfected is returned when the scanner flags the source object.
var ErrInfected = errors.New("source object is infected")

type Worker struct {
	objects    objectstore.Store
	blobs      BlobMarker
	extractors Registry
	scanner    scan.Scanner
	cfg        configuration.WorkerConfig

	sem      *semaphore.Weighted
	mu       sync.Mutex
	stopping bool
	inFlight sync.WaitGroup
}

// NewWorker builds a worker. scanner may be nil to skip virus scanning.
func NewWorker(objects objectstore.Store, blobs BlobMarker, extractors Registry, scanner scan.Scanner, cfg configuration.WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Worker{
		objects:    objects,
		blobs:      blobs,
		extractors: extractors,
		scanner:    scanner,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Run consumes thumbnail jobs until ctx is cancelled. On shutdown it stops
// taking new jobs, waits for in-flight ones to be acknowledged and only then
// releases the consumer.
func (w *Worker) Run(ctx context.Context, consumer queue.Consumer) error {
	consumeCtx, stopConsuming := context.WithCancel(context.WithoutCancel(ctx))
	defer stopConsuming()

	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Consume(consumeCtx, queue.ThumbnailQueue, w.Dispatch)
	}()
	logging.L().Info("[Worker] started", zap.Int("concurrency", w.cfg.Concurrency))

	select {
	case err := <-errCh:
		w.drain()
		return err
	case <-ctx.Done():
	}

	logging.L().Info("[Worker] draining in-flight jobs")
	w.drain()
	stopConsuming()
	err := <-errCh
	logging.L().Info("[Worker] stopped")
	return err
}

// Dispatch is the queue handler. It blocks while the worker is at capacity
// and processes the delivery on its own goroutine. Deliveries that arrive
// during shutdown are left unacknowledged for redelivery.
func (w *Worker) Dispatch(ctx context.Context, d queue.Delivery) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return
	}
	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		w.sem.Release(1)
		return
	}
	w.inFlight.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.inFlight.Done()
		defer w.sem.Release(1)
		w.Handle(context.WithoutCancel(ctx), d)
	}()
}

func (w *Worker) drain() {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()
	w.inFlight.Wait()
}

// Handle processes one delivery to completion and settles it.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) {
	start := time.Now()
	metrics.ThumbnailJobStarted()
	defer metrics.ThumbnailJobFinished()

	var job models.ThumbnailJob
	if err := json.Unmarshal(d.Body(), &job); err != nil || job.BlobID == "" || job.ContentKey == "" {
		logging.L().Warn("[Worker] dropping malformed job", zap.ByteString("body", d.Body()), zap.Error(err))
		w.settle(d, true, metrics.OutcomeDropped, start)
		return
	}

	log := logging.L().With(
		zap.String("file_id", job.FileID),
		zap.String("blob_id", job.BlobID),
		zap.String("type", job.Type),
	)
	ctx = logging.NewContext(ctx, log)

	extractor, ok := w.extractors.Lookup(job.Type)
	if !ok {
		log.Warn("[Worker] unsupported type, skipping")
		w.settle(d, true, metrics.OutcomeSkipped, start)
		return
	}

	span, ctx := tracer.StartSpanFromContext(ctx, "thumbnail.process",
		tracer.ResourceName(job.Type),
		tracer.Tag("blob.id", job.BlobID),
	)
	err := w.process(ctx, job, extractor)
	span.Finish(tracer.WithError(err))

	if err != nil {
		log.Error("[Worker] job failed", zap.Error(err))
		w.settle(d, false, metrics.OutcomeRejected, start)
		return
	}
	log.Info("[Worker] thumbnail generated", zap.Duration("duration", time.Since(start)))
	w.settle(d, true, metrics.OutcomeAcked, start)
}

func (w *Worker) settle(d queue.Delivery, ack bool, outcome string, start time.Time) {
	var err error
	if ack {
		err = d.Ack()
	} else {
		err = d.Reject()
	}
	if err != nil {
		logging.L().Warn("[Worker] failed to settle delivery", zap.Bool("ack", ack), zap.Error(err))
	}
	metrics.RecordThumbnailJob(outcome, time.Since(start))
}

func (w *Worker) process(ctx context.Context, job models.ThumbnailJob, extractor Extractor) error {
	dir, err := os.MkdirTemp(w.cfg.ScratchDir, "thumb-"+job.BlobID+"-")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.WithContext(ctx).Warn("[Worker] failed to remove scratch dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "thumb.jpg")

	if err := w.withTimeout(ctx, w.cfg.DownloadTimeout, func(ctx context.Context) error {
		return w.objects.Download(ctx, job.ContentKey, src)
	}); err != nil {
		return fmt.Errorf("download %s: %w", job.ContentKey, err)
	}

	if w.scanner != nil {
		var verdict scan.Verdict
		if err := w.withTimeout(ctx, w.cfg.ExtractTimeout, func(ctx context.Context) error {
			var err error
			verdict, err = w.scanner.ScanFile(ctx, src)
			return err
		}); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if verdict.Infected {
			return fmt.Errorf("%w: %s", ErrInfected, verdict.Signature)
		}
	}

	if err := w.withTimeout(ctx, w.cfg.ExtractTimeout, func(ctx context.Context) error {
		return extractor.Extract(ctx, src, dst)
	}); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("no thumbnail produced: %w", err)
	}

	key := models.ThumbnailKey(job.BlobID)
	if err := w.withTimeout(ctx, w.cfg.UploadTimeout, func(ctx context.Context) error {
		return w.objects.Upload(ctx, dst, key, thumbnailContentType)
	}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	if err := w.withTimeout(ctx, w.cfg.UploadTimeout, func(ctx context.Context) error {
		return w.blobs.MarkHasThumbnail(ctx, job.BlobID)
	}); err != nil {
		return fmt.Errorf("mark blob: %w", err)
	}
	return nil
}

func (w *Worker) withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
