package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/database"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:  "test-secret",
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
}

func newTestTokenService(t *testing.T) (*TokenService, *time.Time) {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	s := NewTokenService(testAuthConfig, database.NewMemoryBlacklist())
	s.now = func() time.Time { return now }
	return s, &now
}

func TestIssueAndVerify(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 7})
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	access, err := s.Verify(ctx, pair.Access, models.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), access.UserID)
	assert.Equal(t, "7", access.Subject)
	assert.Equal(t, time.Hour, access.ExpiresAt.Sub(access.IssuedAt.Time))

	refresh, err := s.Verify(ctx, pair.Refresh, models.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, refresh.ExpiresAt.Sub(refresh.IssuedAt.Time))
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestVerifyKindMismatch(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 1})
	require.NoError(t, err)

	_, err = s.Verify(ctx, pair.Refresh, models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)

	_, err = s.Verify(ctx, pair.Access, models.TokenKindRefresh)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestVerifyExpired(t *testing.T) {
	s, now := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 1})
	require.NoError(t, err)

	*now = now.Add(time.Hour + time.Second)

	_, err = s.Verify(ctx, pair.Access, models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenExpired)

	// Refresh token still valid for the rest of its day
	_, err = s.Verify(ctx, pair.Refresh, models.TokenKindRefresh)
	assert.NoError(t, err)
}

func TestVerifyBadSignatureAndAlgorithm(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	other := NewTokenService(config.AuthConfig{JWTSecret: "other", AccessTTL: time.Hour, RefreshTTL: time.Hour}, database.NewMemoryBlacklist())
	pair, err := other.Issue(&models.Identity{ID: 1})
	require.NoError(t, err)

	_, err = s.Verify(ctx, pair.Access, models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)

	claims := Claims{
		TokenType: models.TokenKindAccess,
		UserID:    1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(ctx, none, models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.Verify(ctx, hs512, models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)

	_, err = s.Verify(ctx, "not-a-jwt", models.TokenKindAccess)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestRefreshIsSingleUse(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 3})
	require.NoError(t, err)

	next, err := s.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, next.Refresh)

	claims, err := s.Verify(ctx, next.Access, models.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)

	for i := 0; i < 3; i++ {
		_, err = s.Refresh(ctx, pair.Refresh)
		assert.ErrorIs(t, err, errs.ErrTokenRevoked)
	}

	// The new refresh token works once
	_, err = s.Refresh(ctx, next.Refresh)
	assert.NoError(t, err)
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 3})
	require.NoError(t, err)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		revoked int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Refresh(ctx, pair.Refresh)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, errs.ErrTokenRevoked):
				revoked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, revoked)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	s, _ := newTestTokenService(t)

	pair, err := s.Issue(&models.Identity{ID: 3})
	require.NoError(t, err)

	_, err = s.Refresh(context.Background(), pair.Access)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestVerifyAny(t *testing.T) {
	s, _ := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 3})
	require.NoError(t, err)

	_, err = s.VerifyAny(ctx, pair.Access)
	assert.NoError(t, err)
	_, err = s.VerifyAny(ctx, pair.Refresh)
	assert.NoError(t, err)

	_, err = s.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = s.VerifyAny(ctx, pair.Refresh)
	assert.ErrorIs(t, err, errs.ErrTokenRevoked)
}

func TestPurgeExpired(t *testing.T) {
	s, now := newTestTokenService(t)
	ctx := context.Background()

	pair, err := s.Issue(&models.Identity{ID: 3})
	require.NoError(t, err)
	_, err = s.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	*now = now.Add(25 * time.Hour)
	n, err = s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
