package playerdata

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/attribute"
	"github.com/ThomasWega/TG-Middleware/pkg/cache"
	"github.com/ThomasWega/TG-Middleware/pkg/event"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/metrics"
	"github.com/ThomasWega/TG-Middleware/pkg/retry"
	"github.com/ThomasWega/TG-Middleware/pkg/store"
	"github.com/ThomasWega/TG-Middleware/pkg/worker"
)

// Updater writes single player attributes. Each update is one
// transactional store write; derived values and the raw level only ever
// reach the cache mirror.
type Updater struct {
	store     store.Store // nil when the store is not configured
	mirror    cache.Mirror
	events    event.Sink
	pool      *worker.Pool
	retryOpts retry.Options
	logger    *logger.Logger
}

// NewUpdater creates an Updater. A nil store turns every update into a
// no-op; a nil mirror or sink disables that collaborator.
func NewUpdater(s store.Store, m cache.Mirror, events event.Sink, pool *worker.Pool, l *logger.Logger) *Updater {
	opts := retry.DefaultOptions()
	opts.Classifier = store.IsRetryable
	return &Updater{
		store:     s,
		mirror:    m,
		events:    events,
		pool:      pool,
		retryOpts: opts,
		logger:    l,
	}
}

// Update writes one attribute for one player.
//
// The derivation between Experience and Level happens before the write:
// an Experience update mirrors the recomputed level, and a Level update
// is persisted as the Experience threshold for that level. Exactly one
// store write happens per call. The cache mirror and the change event
// follow only a committed transaction, so a store failure propagates
// nothing.
func (u *Updater) Update(ctx context.Context, id uuid.UUID, t attribute.Type, value string) error {
	if u.store == nil {
		return nil
	}

	plan, err := attribute.PlanUpdate(t, value)
	if err != nil {
		metrics.UpdateErrorsTotal.Inc()
		return err
	}

	metrics.UpdatesTotal.Inc()
	start := time.Now()

	err = retry.Do(ctx, func() error {
		return u.store.UpsertColumn(ctx, id, plan.Persisted.ColumnName(), plan.StoreValue)
	}, u.retryOpts)
	if err != nil {
		metrics.UpdateErrorsTotal.Inc()
		return fmt.Errorf("update %s for %s: %w", t, id, err)
	}
	metrics.UpsertLatency.Observe(time.Since(start).Seconds())

	if u.mirror != nil {
		for _, entry := range plan.CacheEntries {
			if err := u.mirror.Update(ctx, id, entry.Type, entry.Value); err != nil {
				// The store committed; a stale mirror entry is
				// recoverable, a failed update is not
				u.logger.Warn("failed to mirror attribute",
					zap.String("uuid", id.String()),
					zap.Stringer("type", entry.Type),
					zap.Error(err))
			}
		}
	}

	if u.events != nil {
		u.events.Fire(ctx, id)
	}
	return nil
}

// UpdateAsync runs Update on the shared pool and delivers the outcome on
// the returned channel
func (u *Updater) UpdateAsync(ctx context.Context, id uuid.UUID, t attribute.Type, value string) <-chan error {
	out := make(chan error, 1)
	err := u.pool.Submit(ctx, func(taskCtx context.Context) {
		out <- u.Update(taskCtx, id, t, value)
	})
	if err != nil {
		out <- err
	}
	return out
}
