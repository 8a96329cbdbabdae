// Package auth registers identities, checks credentials and manages the
// access/refresh token lifecycle.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/guard"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// UserStore persists identities
type UserStore interface {
	Create(ctx context.Context, u *models.Identity) error
	GetByID(ctx context.Context, id int64) (*models.Identity, error)
	GetByUsername(ctx context.Context, username string) (*models.Identity, error)
	List(ctx context.Context) ([]*models.Identity, error)
	UpdateProfile(ctx context.Context, u *models.Identity) error
	SetAdmin(ctx context.Context, username string, admin bool) error
}

// Registration is the body of a sign-up request. Nil means the field was absent.
type Registration struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Credentials is the body of a token request
type Credentials struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// Service implements the identity operations behind /auth
type Service struct {
	users    UserStore
	tokens   *TokenService
	hasher   *Hasher
	guard    *guard.Guard
	validate *validator.Validate
	logger   *logging.Logger
}

// NewService creates an auth service
func NewService(users UserStore, tokens *TokenService, hasher *Hasher, g *guard.Guard, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		guard:    g,
		validate: validator.New(),
		logger:   logger,
	}
}

// Tokens exposes the token service
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register validates reg and stores a new non-admin identity
func (s *Service) Register(ctx context.Context, reg Registration) (*models.Identity, error) {
	u, err := s.create(ctx, reg, false)
	s.logger.LogAuthEvent("register", deref(reg.Username), err)
	return u, err
}

// CreateAdmin stores a new administrator. Used by the admin CLI.
func (s *Service) CreateAdmin(ctx context.Context, reg Registration) (*models.Identity, error) {
	u, err := s.create(ctx, reg, true)
	s.logger.LogAuthEvent("createadmin", deref(reg.Username), err)
	return u, err
}

func (s *Service) create(ctx context.Context, reg Registration, admin bool) (*models.Identity, error) {
	v := errs.NewValidationError()
	validateUsername(v, reg.Username)
	ValidatePassword(v, deref(reg.Password))
	validateName(v, "first_name", reg.FirstName, true)
	validateName(v, "last_name", reg.LastName, false)
	s.validateEmail(v, reg.Email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(*reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.Identity{
		Username:     *reg.Username,
		PasswordHash: hash,
		FirstName:    *reg.FirstName,
		LastName:     deref(reg.LastName),
		Email:        deref(reg.Email),
		IsAdmin:      admin,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errs.FieldError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks credentials and returns a new token pair
func (s *Service) Login(ctx context.Context, creds Credentials) (models.TokenPair, error) {
	v := errs.NewValidationError()
	requireNonBlank(v, "username", creds.Username)
	requireNonBlank(v, "password", creds.Password)
	if err := v.Err(); err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.login(ctx, *creds.Username, *creds.Password)
	s.logger.LogAuthEvent("login", *creds.Username, err)
	return pair, err
}

func (s *Service) login(ctx context.Context, username, password string) (models.TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return models.TokenPair{}, errs.ErrBadCredentials
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return models.TokenPair{}, errs.ErrBadCredentials
	}

	return s.tokens.Issue(u)
}

// Refresh exchanges a refresh token for a new pair
func (s *Service) Refresh(ctx context.Context, refresh *string) (models.TokenPair, error) {
	v := errs.NewValidationError()
	requireNonBlank(v, "refresh", refresh)
	if err := v.Err(); err != nil {
		return models.TokenPair{}, err
	}
	return s.tokens.Refresh(ctx, *refresh)
}

// VerifyToken reports whether token is a valid token of either kind
func (s *Service) VerifyToken(ctx context.Context, token *string) error {
	v := errs.NewValidationError()
	requireNonBlank(v, "token", token)
	if err := v.Err(); err != nil {
		return err
	}
	_, err := s.tokens.VerifyAny(ctx, *token)
	return err
}

// Authenticate resolves an access token to its identity
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.tokens.Verify(ctx, token, models.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", errs.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// ListUsers returns every identity to an admin and only the caller otherwise
func (s *Service) ListUsers(ctx context.Context, actor *models.Identity) ([]*models.Identity, error) {
	if actor == nil {
		return nil, errs.ErrNotAuthenticated
	}
	if !actor.IsAdmin {
		return []*models.Identity{actor}, nil
	}
	return s.users.List(ctx)
}

// GetUser returns identity id if actor may see it. Identities outside the
// actor's scope are reported as missing.
func (s *Service) GetUser(ctx context.Context, actor *models.Identity, id int64) (*models.Identity, error) {
	if actor == nil {
		return nil, errs.ErrNotAuthenticated
	}
	if !actor.IsAdmin && actor.ID != id {
		return nil, errs.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies patch to identity targetID on behalf of actor
func (s *Service) UpdateProfile(ctx context.Context, actor *models.Identity, targetID int64, patch models.ProfilePatch) (*models.Identity, error) {
	if err := s.guard.AuthorizeProfile(actor, targetID); err != nil {
		return nil, err
	}

	v := errs.NewValidationError()
	if patch.FirstName != nil {
		validateName(v, "first_name", patch.FirstName, true)
	}
	validateName(v, "last_name", patch.LastName, false)
	s.validateEmail(v, patch.Email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// SetAdmin grants or revokes administrator rights. Used by the admin CLI.
func (s *Service) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.users.SetAdmin(ctx, username, admin)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
