// Package cache mirrors player attributes into redis for fast reads by
// other processes. The mirror is write-through and never authoritative;
// a missing redis client degrades every operation to a no-op or a miss.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ThomasWega/TG-Middleware/pkg/attribute"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/metrics"
)

// Mirror defines the write-through cache consumed by the update path
type Mirror interface {
	// Update writes the text form of an attribute value
	Update(ctx context.Context, id uuid.UUID, t attribute.Type, value string) error

	// Read returns the cached value, with false on a miss
	Read(ctx context.Context, id uuid.UUID, t attribute.Type) (string, bool, error)

	// Invalidate removes a cached value
	Invalidate(ctx context.Context, id uuid.UUID, t attribute.Type) error
}

// RedisMirror implements Mirror on a redis client
type RedisMirror struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisMirror creates a RedisMirror. A nil client is allowed and
// disables the mirror.
func NewRedisMirror(client *redis.Client, l *logger.Logger) *RedisMirror {
	return &RedisMirror{client: client, logger: l}
}

func mirrorKey(id uuid.UUID, t attribute.Type) string {
	return fmt.Sprintf("player:%s:%s", id, t.ColumnName())
}

// Update writes the value under player:<uuid>:<column>
func (m *RedisMirror) Update(ctx context.Context, id uuid.UUID, t attribute.Type, value string) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Set(ctx, mirrorKey(id, t), value, 0).Err(); err != nil {
		metrics.CacheErrorsTotal.Inc()
		return fmt.Errorf("failed to mirror %s for %s: %w", t, id, err)
	}
	metrics.CacheWritesTotal.Inc()
	return nil
}

// Read returns the cached text value
func (m *RedisMirror) Read(ctx context.Context, id uuid.UUID, t attribute.Type) (string, bool, error) {
	if m.client == nil {
		return "", false, nil
	}
	value, err := m.client.Get(ctx, mirrorKey(id, t)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read mirror for %s: %w", id, err)
	}
	return value, true, nil
}

// Invalidate removes the cached value
func (m *RedisMirror) Invalidate(ctx context.Context, id uuid.UUID, t attribute.Type) error {
	if m.client == nil {
		return nil
	}
	return m.client.Del(ctx, mirrorKey(id, t)).Err()
}
