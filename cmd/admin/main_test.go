package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/database"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/guard"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
)

func newService(t *testing.T) (*auth.Service, *database.MemoryUserStore) {
	t.Helper()
	users := database.NewMemoryUserStore()
	tokens := auth.NewTokenService(config.AuthConfig{JWTSecret: "k", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour}, database.NewMemoryBlacklist())
	hasher := auth.NewHasher(auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	return auth.NewService(users, tokens, hasher, guard.New(false), logging.Nop()), users
}

func TestCreateAdmin(t *testing.T) {
	svc, users := newService(t)
	var out bytes.Buffer

	err := dispatch(context.Background(), svc, "createadmin",
		[]string{"-username", "root", "-password", "secret1", "-first-name", "Root"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created administrator root")

	u, err := users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestCreateAdminInvalid(t *testing.T) {
	svc, _ := newService(t)

	err := dispatch(context.Background(), svc, "createadmin", []string{"-username", "root", "-password", "123"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
}

func TestPromoteDemote(t *testing.T) {
	svc, users := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, auth.Registration{Username: ptr("a"), Password: ptr("secret1"), FirstName: ptr("A")})
	require.NoError(t, err)

	require.NoError(t, dispatch(ctx, svc, "promote", []string{"-username", "a"}, &bytes.Buffer{}))
	u, _ := users.GetByUsername(ctx, "a")
	assert.True(t, u.IsAdmin)

	require.NoError(t, dispatch(ctx, svc, "demote", []string{"-username", "a"}, &bytes.Buffer{}))
	u, _ = users.GetByUsername(ctx, "a")
	assert.False(t, u.IsAdmin)

	err = dispatch(ctx, svc, "promote", []string{"-username", "ghost"}, &bytes.Buffer{})
	assert.EqualError(t, err, `no user named "ghost"`)

	assert.Error(t, dispatch(ctx, svc, "promote", nil, &bytes.Buffer{}))
}

func TestFlushTokens(t *testing.T) {
	svc, _ := newService(t)
	var out bytes.Buffer

	require.NoError(t, dispatch(context.Background(), svc, "flushtokens", nil, &out))
	assert.Equal(t, "removed 0 expired blacklist entries\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	svc, _ := newService(t)
	err := dispatch(context.Background(), svc, "frobnicate", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUnknownCommand)
}

func ptr(s string) *string { return &s }
