package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/objectstore"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/queue"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	serviceName     = "drive-api"
	shutdownTimeout = 15 * time.Second
	backgroundLimit = 30 * time.Second
)

func main() {
	cfg := configuration.Load()
	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.L().Fatal("server exited with error", zap.Error(err))
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

	redisClient, err := services.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	verifier, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return err
	}

	tasks := services.NewBackground(backgroundLimit)
	files := services.NewFileService(db, objects)
	sessions := services.NewSessionService(services.NewRedisRevocations(redisClient), tasks)

	h := handlers.New(handlers.Deps{
		Uploads:  services.NewUploadService(db, objects, broker, tasks, cfg.Storage.PresignExpiry),
		Files:    files,
		Shares:   services.NewShareService(db, files, cfg.Server.APIURL),
		Sessions: sessions,
		Checks: map[string]handlers.Pinger{
			"postgres":     db,
			"object_store": objects,
		},
		DBStats: db.DB().Stats,
	})

	router := newRouter(cfg, h, middleware.RequireAuth(verifier, cfg.OIDCClientID, sessions))
	srv := newServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown incomplete", zap.Error(err))
	}
	tasks.Wait()
	return nil
}

func newRouter(cfg *configuration.Config, h *handlers.Handler, auth gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(gintrace.Middleware(serviceName))
	}
	api.RegisterRoutes(r, h, auth)
	return r
}

func newServer(cfg configuration.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
