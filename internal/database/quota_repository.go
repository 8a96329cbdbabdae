package database

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// QuotaRepository keeps per-caller request counters in PostgreSQL.
// The upsert takes a row lock on the key, so concurrent increments serialise.
type QuotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Incr counts one request for key at now. A window that started at least
// window ago is restarted at now with a count of 1.
func (r *QuotaRepository) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (c models.QuotaCounter, err error) {
	defer track("quota_incr", &err)()

	query := `
		INSERT INTO quota_counters (key, window_start, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (key) DO UPDATE SET
			window_start = CASE
				WHEN quota_counters.window_start + ($3 * interval '1 millisecond') <= EXCLUDED.window_start
				THEN EXCLUDED.window_start
				ELSE quota_counters.window_start
			END,
			count = CASE
				WHEN quota_counters.window_start + ($3 * interval '1 millisecond') <= EXCLUDED.window_start
				THEN 1
				ELSE quota_counters.count + 1
			END
		RETURNING count, window_start
	`

	c.Key = key
	err = r.db.Pool.QueryRow(ctx, query, key, now, window.Milliseconds()).Scan(&c.Count, &c.WindowStart)
	if err != nil {
		return models.QuotaCounter{}, fmt.Errorf("failed to increment quota: %w", err)
	}
	return c, nil
}

// PurgeStale deletes counters whose window closed before the given instant
func (r *QuotaRepository) PurgeStale(ctx context.Context, window time.Duration, before time.Time) (n int64, err error) {
	defer track("quota_purge", &err)()

	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM quota_counters WHERE window_start + ($1 * interval '1 millisecond') <= $2`,
		window.Milliseconds(), before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge quota counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
