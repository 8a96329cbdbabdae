// Package quota admits or throttles requests against per-caller daily ceilings.
package quota

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Class separates anonymous callers from authenticated ones
type Class string

// Class constants
const (
	ClassAnonymous     Class = "anonymous"
	ClassAuthenticated Class = "authenticated"
)

// Caller identifies whose counter a request is charged to
type Caller struct {
	Key   string
	Class Class
}

// AnonymousCaller keys an unauthenticated request by a hash of its client
// address so raw addresses never reach the counter store.
func AnonymousCaller(clientIP string) Caller {
	sum := sha256.Sum256([]byte(clientIP))
	return Caller{Key: "anon:" + hex.EncodeToString(sum[:]), Class: ClassAnonymous}
}

// UserCaller keys an authenticated request by identity ID
func UserCaller(id int64) Caller {
	return Caller{Key: "user:" + strconv.FormatInt(id, 10), Class: ClassAuthenticated}
}

// Store counts requests per key inside a window. Incr must be atomic per key.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (models.QuotaCounter, error)
}

// Limits holds the per-class ceilings
type Limits struct {
	Anonymous     int64
	Authenticated int64
	Window        time.Duration
}

// LimitsFromConfig builds Limits from the quota config section
func LimitsFromConfig(cfg config.QuotaConfig) Limits {
	return Limits{
		Anonymous:     cfg.AnonymousPerDay,
		Authenticated: cfg.AuthenticatedPerDay,
		Window:        cfg.Window,
	}
}

// For returns the ceiling that applies to class
func (l Limits) For(class Class) int64 {
	if class == ClassAuthenticated {
		return l.Authenticated
	}
	return l.Anonymous
}

// Decision is the outcome of one admission check
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Tracker enforces Limits using a Store
type Tracker struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// NewTracker creates a quota tracker
func NewTracker(store Store, limits Limits) *Tracker {
	return &Tracker{store: store, limits: limits, now: time.Now}
}

// Admit counts the request against the caller's window and decides whether
// it may proceed. Every attempt is counted, including rejected ones.
func (t *Tracker) Admit(ctx context.Context, caller Caller) (Decision, error) {
	now := t.now()
	limit := t.limits.For(caller.Class)

	counter, err := t.store.Incr(ctx, caller.Key, t.limits.Window, now)
	if err != nil {
		return Decision{}, fmt.Errorf("quota %s: %w", caller.Key, err)
	}

	d := Decision{Allowed: counter.Count <= limit, Count: counter.Count, Limit: limit}
	if !d.Allowed {
		d.RetryAfter = counter.ResetAt(t.limits.Window).Sub(now)
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
	}
	return d, nil
}

// RetryAfterSeconds rounds the wait up to whole seconds
func (d Decision) RetryAfterSeconds() int64 {
	secs := int64(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
