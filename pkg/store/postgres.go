package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
)

// Store defines the authoritative player data store consumed by the
// fetch and update paths
type Store interface {
	// FetchColumn reads a single column for a player. The second return
	// is false when no row exists.
	FetchColumn(ctx context.Context, id uuid.UUID, column string) (string, bool, error)

	// UpsertColumn writes a single (player, column) pair in one
	// transaction with insert-or-update-on-conflict semantics.
	UpsertColumn(ctx context.Context, id uuid.UUID, column, value string) error

	// FetchID resolves a player id from a display name. The second
	// return is false when no row exists.
	FetchID(ctx context.Context, name string) (uuid.UUID, bool, error)

	// Close closes the underlying connection pool
	Close() error
}

// PGStore implements Store using pgxpool
type PGStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// Config holds database connection settings
type Config struct {
	URI             string
	MinConns        int32
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// New creates a new PGStore instance
func New(ctx context.Context, cfg Config, l *logger.Logger) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{pool: pool, logger: l}, nil
}

// FetchColumn reads one attribute column for one player. The column is
// always read back in its text form so numeric and string attributes
// cross the store boundary identically.
func (s *PGStore) FetchColumn(ctx context.Context, id uuid.UUID, column string) (string, bool, error) {
	// column comes from the attribute enum, never from user input
	query := fmt.Sprintf(`SELECT %s::text FROM player_data WHERE uuid = $1`, column)

	var value string
	err := s.pool.QueryRow(ctx, query, id.String()).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch %s for %s: %w", column, id, err)
	}
	return value, true, nil
}

// UpsertColumn writes one attribute column for one player inside a
// transaction. The rollback is deferred so every exit path, including a
// failed commit, releases the connection.
func (s *PGStore) UpsertColumn(ctx context.Context, id uuid.UUID, column, value string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO player_data (uuid, %s)
		VALUES ($1, $2)
		ON CONFLICT (uuid) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING (xmax = 0) AS inserted
	`, column, column, column)

	var inserted bool
	if err := tx.QueryRow(ctx, query, id.String(), value).Scan(&inserted); err != nil {
		return fmt.Errorf("failed to upsert %s for %s: %w", column, id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	status := "updated"
	if inserted {
		status = "inserted"
	}
	s.logger.Debug("upsert complete",
		zap.String("uuid", id.String()),
		zap.String("column", column),
		zap.String("status", status))
	return nil
}

// FetchID resolves a player id from a display name. A malformed uuid
// read back from storage is a data corruption failure, not a miss.
func (s *PGStore) FetchID(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT uuid FROM player_data WHERE name = $1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to fetch uuid for %q: %w", name, err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid uuid %q stored for %q: %w", raw, name, err)
	}
	return id, true, nil
}

// Ping verifies the pool is reachable
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// IsRetryable reports whether a store error is transient: connection
// failures, serialization conflicts, and deadlocks are retried, anything
// else fails the operation.
func IsRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}
