package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/app"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/middleware"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/tracing"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create logger")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatalf("API server failed: %v", err)
	}
}

// configPath returns CONFIG_PATH, or config.yaml when it exists
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return "config.yaml"
}

func run(cfg *config.Config, logger *logging.Logger) error {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer, closer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		return err
	}

	pipeline := &middleware.Pipeline{
		Logger: logger,
		Tracer: tracer,
		Auth:   services.Auth,
		Quota:  services.Quota,
	}
	if cfg.Quota.BurstPerSecond > 0 {
		pipeline.Burst = middleware.NewRateLimiter(cfg.Quota.BurstPerSecond, cfg.Quota.Burst)
		go pipeline.Burst.Cleanup(ctx, 10*time.Minute, time.Hour)
	}

	if mem, ok := backends.Quota.(*quota.MemoryStore); ok {
		go sweepQuota(ctx, mem, cfg.Quota.Window)
	}

	api := &API{
		auth:   services.Auth,
		tasks:  services.Tasks,
		checks: backends.Checks(),
		logger: logger,
	}

	router, err := setupRouter(api, pipeline, cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	logger.WithField("public", pipeline.Stages(false)).
		WithField("protected", pipeline.Stages(true)).
		Info("request pipeline configured")

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("metrics server stopped", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithErr("metrics server shutdown", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// sweepQuota drops closed windows from an in-memory quota store
func sweepQuota(ctx context.Context, store *quota.MemoryStore, window time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			store.Sweep(window, now)
		}
	}
}
