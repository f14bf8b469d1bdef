package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// SettingRepository provides PostgreSQL-backed settings storage.
type SettingRepository struct {
	pool *Pool
}

// NewSettingRepository creates a new setting repository.
func NewSettingRepository(pool *Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get returns the setting value for a key.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", database.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// Set creates or replaces the setting value.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
