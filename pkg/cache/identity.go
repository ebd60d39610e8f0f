package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/store"
)

// IdentityResolver resolves a player's id from their display name. This
// is the only path allowed to hand out Identity values.
type IdentityResolver interface {
	Resolve(ctx context.Context, name string) (uuid.UUID, bool, error)
}

// IdentityCache implements IdentityResolver with a redis fast path in
// front of the store. Either collaborator may be absent; a resolver with
// neither always misses.
type IdentityCache struct {
	client *redis.Client
	store  store.Store
	logger *logger.Logger
}

// NewIdentityCache creates an IdentityCache
func NewIdentityCache(client *redis.Client, s store.Store, l *logger.Logger) *IdentityCache {
	return &IdentityCache{client: client, store: s, logger: l}
}

func identityKey(name string) string {
	return "playername:" + strings.ToLower(name)
}

// Resolve looks the name up in redis first and falls through to the
// store, writing the result back on a store hit
func (c *IdentityCache) Resolve(ctx context.Context, name string) (uuid.UUID, bool, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, identityKey(name)).Result()
		if err == nil {
			id, parseErr := uuid.Parse(raw)
			if parseErr == nil {
				return id, true, nil
			}
			// Corrupt entry: drop it and fall through to the store
			c.logger.Warn("dropping invalid cached uuid",
				zap.String("name", name), zap.String("raw", raw))
			c.client.Del(ctx, identityKey(name))
		} else if err != redis.Nil {
			return uuid.Nil, false, fmt.Errorf("failed to read identity cache for %q: %w", name, err)
		}
	}

	if c.store == nil {
		return uuid.Nil, false, nil
	}

	id, found, err := c.store.FetchID(ctx, name)
	if err != nil || !found {
		return uuid.Nil, false, err
	}

	if c.client != nil {
		if err := c.client.Set(ctx, identityKey(name), id.String(), 0).Err(); err != nil {
			c.logger.Warn("failed to cache resolved identity",
				zap.String("name", name), zap.Error(err))
		}
	}
	return id, true, nil
}
