// Package app opens the storage, quota and event backends selected by
// configuration and assembles the services on top of them.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/cache"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/database"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/guard"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/queue"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/tasks"
)

// Backends holds the stores in use. DB, Cache and Queue are nil when the
// configuration does not need them.
type Backends struct {
	Users     auth.UserStore
	Tasks     tasks.Store
	Blacklist auth.Blacklist
	Quota     quota.Store
	Events    queue.Publisher

	DB         *database.DB
	Cache      *cache.Cache
	Queue      *queue.Queue
	QuotaTable *database.QuotaRepository
}

// Open connects to every backend cfg selects, applying migrations first
// when database.autoMigrate is set.
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Backends, error) {
	b := &Backends{Events: queue.NopPublisher{}}

	if cfg.Auth.Store == "postgres" || cfg.Quota.Backend == "postgres" {
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, cfg.Database.ConnString()); err != nil {
				return nil, err
			}
			logger.Info("database migrations applied")
		}

		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		b.DB = db
	}

	switch cfg.Auth.Store {
	case "postgres":
		b.Users = database.NewUserRepository(b.DB)
		b.Tasks = database.NewTaskRepository(b.DB)
		b.Blacklist = database.NewBlacklistRepository(b.DB)
	default:
		logger.Warn("using in-memory credential and task store")
		b.Users = database.NewMemoryUserStore()
		b.Tasks = database.NewMemoryTaskStore()
		b.Blacklist = database.NewMemoryBlacklist()
	}

	switch cfg.Quota.Backend {
	case "redis":
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Cache = c
		b.Quota = c
	case "postgres":
		b.QuotaTable = database.NewQuotaRepository(b.DB)
		b.Quota = b.QuotaTable
	default:
		b.Quota = quota.NewMemoryStore()
	}

	if cfg.Queue.Enabled {
		q, err := queue.New(cfg.Queue)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Queue = q
		b.Events = q
	}

	return b, nil
}

// Close releases every open connection
func (b *Backends) Close() {
	if b.Queue != nil {
		_ = b.Queue.Close()
	}
	if b.Cache != nil {
		_ = b.Cache.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// Checks returns a ping per connected backend, keyed by name
func (b *Backends) Checks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if b.DB != nil {
		checks["database"] = b.DB.Health
	}
	if b.Cache != nil {
		checks["redis"] = b.Cache.Ping
	}
	return checks
}

// Services are the domain services built on a set of backends
type Services struct {
	Auth  *auth.Service
	Tasks *tasks.Service
	Quota *quota.Tracker
}

// NewServices assembles the services on top of b
func NewServices(cfg *config.Config, b *Backends, logger *logging.Logger) (*Services, error) {
	authCfg := cfg.Auth
	if authCfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("auth.jwtSecret is required")
		}
		// Tokens do not survive a restart
		authCfg.JWTSecret = uuid.NewString()
		logger.Warn("auth.jwtSecret is empty; using an ephemeral signing key")
	}

	g := guard.New(cfg.Guard.HideForeignTasks)
	tokens := auth.NewTokenService(authCfg, b.Blacklist)
	hasher := auth.NewHasher(auth.DefaultHashParams())

	return &Services{
		Auth:  auth.NewService(b.Users, tokens, hasher, g, logger),
		Tasks: tasks.NewService(b.Tasks, g, b.Events, logger, cfg.Pagination),
		Quota: quota.NewTracker(b.Quota, quota.LimitsFromConfig(cfg.Quota)),
	}, nil
}
