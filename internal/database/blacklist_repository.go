package database

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
)

// BlacklistRepository records refresh tokens that have been exchanged
type BlacklistRepository struct {
	db *DB
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add blacklists jti. The primary key makes the insert first-writer-wins:
// a caller that loses the race gets errs.ErrTokenRevoked.
func (r *BlacklistRepository) Add(ctx context.Context, jti string, expiresAt time.Time) (err error) {
	defer track("blacklist_insert", &err)()

	query := `
		INSERT INTO token_blacklist (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrTokenRevoked
	}
	return nil
}

// Contains reports whether jti has been blacklisted
func (r *BlacklistRepository) Contains(ctx context.Context, jti string) (found bool, err error) {
	defer track("blacklist_lookup", &err)()

	err = r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)`, jti).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return found, nil
}

// PurgeExpired drops entries whose token expired before the given instant.
// Such tokens fail verification on exp alone.
func (r *BlacklistRepository) PurgeExpired(ctx context.Context, before time.Time) (n int64, err error) {
	defer track("blacklist_purge", &err)()

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM token_blacklist WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge blacklist: %w", err)
	}
	return tag.RowsAffected(), nil
}
