package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKVRepository stores values in the form_store table.
type PostgresKVRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresKVRepository creates a new PostgresKVRepository.
func NewPostgresKVRepository(pool *pgxpool.Pool) *PostgresKVRepository {
	return &PostgresKVRepository{pool: pool}
}

// Get reads the value stored under key.
func (r *PostgresKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := r.pool.QueryRow(ctx, `SELECT value FROM form_store WHERE key = $1`, key).Scan(&val)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set upserts the value stored under key.
func (r *PostgresKVRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO form_store (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}
