package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/queue"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/scan"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/thumbnail"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const serviceName = "drive-thumbnail-worker"

func main() {
	cfg := configuration.Load()
	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.L().Fatal("worker exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *configuration.Config) error {
	log := logging.L()

	if cfg.TracingEnabled {
		tracer.Start(tracer.WithService(serviceName))
		defer tracer.Stop()
	}

	db, err := storage.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	objects, err := objectstore.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	broker, err := queue.New(cfg.Queue)
	if err != nil {
		return err
	}
	defer broker.Close()

	scanner := newScanner(cfg.CLAMAVURL)

	metricsSrv := newMetricsServer(cfg.Worker.MetricsAddr)
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	worker := thumbnail.NewWorker(objects, db, thumbnail.DefaultRegistry(nil), scanner, cfg.Worker)
	return worker.Run(ctx, broker)
}

// newScanner returns nil when no ClamAV address is configured or the daemon
// does not answer, which disables scanning.
func newScanner(address string) scan.Scanner {
	if address == "" {
		return nil
	}
	clam := scan.NewClamAV(address)
	if err := clam.Ping(); err != nil {
		logging.L().Warn("[ClamAV] unreachable, scanning disabled", zap.String("address", address), zap.Error(err))
		return nil
	}
	logging.L().Info("[ClamAV] scanning enabled", zap.String("address", address))
	return clam
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
