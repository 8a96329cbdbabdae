package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/cache"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/database"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/queue"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{JWTSecret: "s3cret", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour, Store: "memory"},
		Quota:       config.QuotaConfig{Backend: "memory", AnonymousPerDay: 100, AuthenticatedPerDay: 1000, Window: 24 * time.Hour},
		Pagination:  config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
	}
}

func ptr(s string) *string { return &s }

func TestOpenMemory(t *testing.T) {
	b, err := Open(context.Background(), memoryConfig(), logging.Nop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &database.MemoryUserStore{}, b.Users)
	assert.IsType(t, &database.MemoryTaskStore{}, b.Tasks)
	assert.IsType(t, &database.MemoryBlacklist{}, b.Blacklist)
	assert.IsType(t, &quota.MemoryStore{}, b.Quota)
	assert.IsType(t, queue.NopPublisher{}, b.Events)
	assert.Nil(t, b.DB)
	assert.Empty(t, b.Checks())
}

func TestOpenRedisQuota(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Quota.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Server().Addr().Port}

	b, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &cache.Cache{}, b.Quota)
	require.Contains(t, b.Checks(), "redis")
	assert.NoError(t, b.Checks()["redis"](context.Background()))
}

func TestOpenUnreachableRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.Quota.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := Open(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}

func TestNewServices(t *testing.T) {
	cfg := memoryConfig()
	b, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	s, err := NewServices(cfg, b, logging.Nop())
	require.NoError(t, err)

	u, err := s.Auth.Register(context.Background(), auth.Registration{
		Username: ptr("a"), Password: ptr("secret1"), FirstName: ptr("A"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a", u.Username)

	d, err := s.Quota.Admit(context.Background(), quota.UserCaller(u.ID))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1000), d.Limit)
}

func TestNewServicesSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.JWTSecret = ""
	b, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	_, err = NewServices(cfg, b, logging.Nop())
	assert.Error(t, err)

	cfg.Environment = "development"
	s, err := NewServices(cfg, b, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, s.Auth)
}
