// Package playerdata implements the middleware core: fetching player
// attributes and updating them while keeping the store, the cache
// mirror, and derived values consistent.
package playerdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/ThomasWega/TG-Middleware/pkg/attribute"
	"github.com/ThomasWega/TG-Middleware/pkg/cache"
	"github.com/ThomasWega/TG-Middleware/pkg/level"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/metrics"
	"github.com/ThomasWega/TG-Middleware/pkg/store"
	"github.com/ThomasWega/TG-Middleware/pkg/worker"
)

// Result is the outcome of an asynchronous attribute fetch. Found is
// false both on a missing row and on an unconfigured store.
type Result struct {
	Value string
	Found bool
	Err   error
}

// IDResult is the outcome of an asynchronous identity resolution
type IDResult struct {
	ID    uuid.UUID
	Found bool
	Err   error
}

// Fetcher reads single player attributes asynchronously
type Fetcher struct {
	store    store.Store // nil when the store is not configured
	identity cache.IdentityResolver
	pool     *worker.Pool
	logger   *logger.Logger
}

// NewFetcher creates a Fetcher. Both collaborators may be nil; fetches
// then yield absent results.
func NewFetcher(s store.Store, identity cache.IdentityResolver, pool *worker.Pool, l *logger.Logger) *Fetcher {
	return &Fetcher{store: s, identity: identity, pool: pool, logger: l}
}

// Fetch reads one attribute for one player on the shared pool and
// delivers the result on the returned channel.
//
// Identity cannot be fetched here; use FetchIdentity. Level is never
// read from storage: it is derived from the player's Experience.
func (f *Fetcher) Fetch(ctx context.Context, id uuid.UUID, t attribute.Type) <-chan Result {
	out := make(chan Result, 1)

	if t == attribute.Identity {
		out <- Result{Err: attribute.ErrIdentityFetch}
		return out
	}

	if f.store == nil {
		out <- Result{}
		return out
	}

	err := f.pool.Submit(ctx, func(taskCtx context.Context) {
		metrics.FetchesTotal.Inc()
		res := f.fetch(taskCtx, id, t)
		if res.Err != nil {
			metrics.FetchErrorsTotal.Inc()
		}
		out <- res
	})
	if err != nil {
		out <- Result{Err: err}
	}
	return out
}

func (f *Fetcher) fetch(ctx context.Context, id uuid.UUID, t attribute.Type) Result {
	if t == attribute.Level {
		return f.fetchLevel(ctx, id)
	}

	value, found, err := f.store.FetchColumn(ctx, id, t.ColumnName())
	if err != nil {
		return Result{Err: fmt.Errorf("fetch %s for %s: %w", t, id, err)}
	}
	return Result{Value: value, Found: found}
}

// fetchLevel derives the level from the stored experience instead of
// reading a level column
func (f *Fetcher) fetchLevel(ctx context.Context, id uuid.UUID) Result {
	raw, found, err := f.store.FetchColumn(ctx, id, attribute.Experience.ColumnName())
	if err != nil {
		return Result{Err: fmt.Errorf("fetch experience for level of %s: %w", id, err)}
	}
	if !found {
		return Result{}
	}

	xp, err := strconv.Atoi(raw)
	if err != nil {
		return Result{Err: fmt.Errorf("stored experience %q for %s is not numeric: %w", raw, id, err)}
	}
	return Result{Value: strconv.Itoa(level.FromXP(xp)), Found: true}
}

// FetchIdentity resolves a player id from a display name through the
// identity cache. This is the only fetch path that yields Identity
// values.
func (f *Fetcher) FetchIdentity(ctx context.Context, name string) <-chan IDResult {
	out := make(chan IDResult, 1)

	if f.identity == nil {
		out <- IDResult{}
		return out
	}

	err := f.pool.Submit(ctx, func(taskCtx context.Context) {
		id, found, err := f.identity.Resolve(taskCtx, name)
		if err != nil {
			metrics.FetchErrorsTotal.Inc()
			out <- IDResult{Err: fmt.Errorf("resolve identity of %q: %w", name, err)}
			return
		}
		out <- IDResult{ID: id, Found: found}
	})
	if err != nil {
		out <- IDResult{Err: err}
	}
	return out
}
