package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Claims represents JWT claims. RegisteredClaims.ID carries the token's jti.
type Claims struct {
	TokenType models.TokenKind `json:"token_type"`
	UserID    int64            `json:"user_id"`
	jwt.RegisteredClaims
}

// Blacklist is the server-side record of exchanged refresh tokens.
// Add must be atomic: of concurrent calls for one jti exactly one succeeds
// and the rest get errs.ErrTokenRevoked.
type Blacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenService issues and verifies HS256 access/refresh token pairs
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
	now        func() time.Time
}

// NewTokenService creates a token service from the auth config section
func NewTokenService(cfg config.AuthConfig, blacklist Blacklist) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		blacklist:  blacklist,
		now:        time.Now,
	}
}

// Issue mints a fresh access/refresh pair for identity
func (s *TokenService) Issue(identity *models.Identity) (pair models.TokenPair, err error) {
	defer func() { metrics.RecordTokenOperation("issue", err) }()

	return s.issue(identity.ID)
}

func (s *TokenService) issue(userID int64) (models.TokenPair, error) {
	access, err := s.sign(userID, models.TokenKindAccess, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.sign(userID, models.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) sign(userID int64, kind models.TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		TokenType: kind,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and kind of token. Refresh tokens are also
// checked against the blacklist.
func (s *TokenService) Verify(ctx context.Context, token string, kind models.TokenKind) (claims *Claims, err error) {
	defer func() { metrics.RecordTokenOperation("verify_"+string(kind), err) }()

	claims, err = s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != kind {
		return nil, fmt.Errorf("%w: token has wrong type", errs.ErrTokenInvalid)
	}
	if kind == models.TokenKindRefresh {
		revoked, err := s.blacklist.Contains(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check blacklist: %w", err)
		}
		if revoked {
			return nil, errs.ErrTokenRevoked
		}
	}
	return claims, nil
}

// VerifyAny verifies a token of either kind
func (s *TokenService) VerifyAny(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, token, claims.TokenType)
}

func (s *TokenService) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errs.ErrTokenInvalid
	}
	if claims.ID == "" || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing token id or user id", errs.ErrTokenInvalid)
	}
	switch claims.TokenType {
	case models.TokenKindAccess, models.TokenKindRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown token type", errs.ErrTokenInvalid)
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new pair. The old token is
// blacklisted before the new pair is minted, so it can be redeemed once.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (pair models.TokenPair, err error) {
	defer func() { metrics.RecordTokenOperation("refresh", err) }()

	claims, err := s.Verify(ctx, refreshToken, models.TokenKindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, errs.ErrTokenRevoked) {
			return models.TokenPair{}, err
		}
		return models.TokenPair{}, fmt.Errorf("failed to blacklist refresh token: %w", err)
	}

	return s.issue(claims.UserID)
}

// PurgeExpired removes blacklist entries for tokens that have expired anyway
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.blacklist.PurgeExpired(ctx, s.now())
}
