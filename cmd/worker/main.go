package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/app"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/webhook"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

func main() {
	interval := flag.Duration("interval", time.Hour, "time between maintenance sweeps")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			configPath = ""
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create logger")
	}

	// Handle shutdown gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open backends: %v", err)
	}
	defer backends.Close()

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		logger.Fatalf("Failed to build services: %v", err)
	}

	w := &worker{
		tokens: services.Auth.Tokens(),
		window: cfg.Quota.Window,
		logger: logger,
		now:    time.Now,
	}
	if backends.QuotaTable != nil {
		w.quotaTable = backends.QuotaTable
	}
	if hooks := webhook.NewService(cfg.Webhook, logger); hooks.Enabled() {
		w.notifier = hooks
	}

	if backends.Queue != nil {
		go func() {
			logger.Info("Consuming task events...")
			if err := backends.Queue.ConsumeTaskEvents(ctx, func(evt models.TaskEvent) error {
				return w.handleEvent(ctx, evt)
			}); err != nil {
				logger.ErrorWithErr("task event consumer stopped", err)
			}
		}()
	}

	logger.Infof("Worker started, sweeping every %s", *interval)
	w.run(ctx, *interval)
	logger.Info("Worker stopped")
}
