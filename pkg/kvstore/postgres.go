package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore maps the key space onto a single kv_store table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps db. Call EnsureSchema once before first use.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the kv_store table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_store WHERE key = $1`
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_store WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	const query = `SELECT key FROM kv_store ORDER BY key`
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("list kv keys: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
