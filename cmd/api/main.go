package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezparkk/site-api/internal/auth"
	"github.com/ezparkk/site-api/internal/config"
	"github.com/ezparkk/site-api/internal/database"
	"github.com/ezparkk/site-api/internal/handlers"
	"github.com/ezparkk/site-api/internal/metrics"
	"github.com/ezparkk/site-api/internal/middleware"
	"github.com/ezparkk/site-api/internal/services"
	"github.com/ezparkk/site-api/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	logger := newLogger(cfg)
	cfg.Log(logger)

	err := run(cfg, logger)
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every client it opens; they are closed before it returns.
func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := auth.ClientOptions(ctx, cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	// 2. Document store
	var repo services.Repository
	switch cfg.DocumentStore {
	case config.StorePostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		repo = database.NewGormRepository(db)
	default:
		client, err := database.NewFirestoreClient(ctx, cfg.Firebase.ProjectID, opts...)
		if err != nil {
			return err
		}
		defer client.Close()
		repo = database.NewFirestoreRepository(client)
	}
	logger.Info("document store ready", zap.String("store", cfg.DocumentStore))

	// 3. Resume storage. Without it the site still takes waitlist entries
	// and applications; only uploads fail.
	var blobs services.BlobStore
	if storageClient, err := storage.NewClient(ctx, opts...); err != nil {
		logger.Warn("resume storage unavailable", zap.Error(err))
	} else {
		defer storageClient.Close()
		blobs = storage.NewGCSBlobStore(storageClient, cfg.Firebase.StorageBucket)
		logger.Info("resume storage ready", zap.String("bucket", cfg.Firebase.StorageBucket))
	}

	// 4. Services & handlers
	m := metrics.New()
	submissionService := services.NewSubmissionService(repo, blobs, logger, m)
	submissionService.SubmitTimeout = cfg.SubmitTimeout
	roleService := services.NewRoleService(services.OpenRoles)

	// 5. Router
	gin.SetMode(cfg.GinMode)
	r, err := handlers.NewRouter(
		handlers.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			TrustedProxies: cfg.TrustedProxies,
			Logger:         logger,
			Metrics:        m,
			RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		},
		handlers.NewSubmissionHandler(submissionService, roleService, logger),
		handlers.NewRoleHandler(roleService),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.GinMode == gin.DebugMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	return logger
}
