package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

const userColumns = `id, username, password_hash, first_name, last_name, email, is_admin, date_joined`

// UserRepository stores identities in PostgreSQL
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new identity and fills in its ID and join date.
// A taken username yields errs.ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *models.Identity) (err error) {
	defer track("user_insert", &err)()

	query := `
		INSERT INTO users (username, password_hash, first_name, last_name, email, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, date_joined
	`

	err = r.db.Pool.QueryRow(ctx, query,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email, u.IsAdmin,
	).Scan(&u.ID, &u.DateJoined)

	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves an identity by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.Identity, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "user_get", query, id)
}

// GetByUsername retrieves an identity by its unique username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.Identity, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, "user_get_by_username", query, username)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (u *models.Identity, err error) {
	defer track(op, &err)()

	u, err = scanIdentity(r.db.Pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns every identity ordered by ID
func (r *UserRepository) List(ctx context.Context) (users []*models.Identity, err error) {
	defer track("user_list", &err)()

	rows, err := r.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdateProfile persists the profile fields of u
func (r *UserRepository) UpdateProfile(ctx context.Context, u *models.Identity) (err error) {
	defer track("user_update", &err)()

	query := `UPDATE users SET first_name = $2, last_name = $3, email = $4 WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, u.ID, u.FirstName, u.LastName, u.Email)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetAdmin grants or revokes administrator rights
func (r *UserRepository) SetAdmin(ctx context.Context, username string, admin bool) (err error) {
	defer track("user_set_admin", &err)()

	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE username = $1`, username, admin)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (*models.Identity, error) {
	var u models.Identity
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Email, &u.IsAdmin, &u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
