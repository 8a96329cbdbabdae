package main

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

type tokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type eventNotifier interface {
	Notify(ctx context.Context, evt models.TaskEvent) error
}

type quotaPurger interface {
	PurgeStale(ctx context.Context, window time.Duration, before time.Time) (int64, error)
}

// worker drops dead revocation and quota rows, and audits and forwards task
// events
type worker struct {
	tokens     tokenPurger
	quotaTable quotaPurger
	notifier   eventNotifier
	window     time.Duration
	logger     *logging.Logger
	now        func() time.Time
}

func (w *worker) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one maintenance pass. Failures are logged and retried on the
// next tick.
func (w *worker) sweep(ctx context.Context) {
	n, err := w.tokens.PurgeExpired(ctx)
	if err != nil {
		metrics.RecordError("worker", "purge_tokens")
		w.logger.ErrorWithErr("failed to purge blacklisted tokens", err)
	} else {
		w.logger.WithField("removed", n).Info("purged expired blacklisted tokens")
	}

	if w.quotaTable == nil {
		return
	}
	n, err = w.quotaTable.PurgeStale(ctx, w.window, w.now())
	if err != nil {
		metrics.RecordError("worker", "purge_quota")
		w.logger.ErrorWithErr("failed to purge quota counters", err)
		return
	}
	w.logger.WithField("removed", n).Info("purged stale quota counters")
}

// handleEvent returns the forwarding error so the broker redelivers the event
func (w *worker) handleEvent(ctx context.Context, evt models.TaskEvent) error {
	w.logger.WithTaskID(evt.TaskID).
		WithFields(map[string]interface{}{
			"event":    string(evt.Type),
			"owner_id": evt.OwnerID,
			"actor_id": evt.ActorID,
			"status":   string(evt.Status),
		}).
		Info("task event")

	if w.notifier == nil {
		return nil
	}
	return w.notifier.Notify(ctx, evt)
}
