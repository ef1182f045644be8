package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

// SettingRepository implements the key/value settings table
type SettingRepository struct {
	q Queryable
}

// NewSettingRepositoryScoped creates a new setting repository bound to a transaction
func NewSettingRepositoryScoped(tx Queryable) *SettingRepository {
	return &SettingRepository{q: tx}
}

// Get returns a setting, or nil when the key is not stored
func (r *SettingRepository) Get(ctx context.Context, key string) (*entities.Setting, error) {
	query := `SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`

	var s entities.Setting
	err := r.q.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &s, nil
}

// GetAll returns every stored setting ordered by key
func (r *SettingRepository) GetAll(ctx context.Context) ([]*entities.Setting, error) {
	rows, err := r.q.Query(ctx, `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*entities.Setting
	for rows.Next() {
		var s entities.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// Set writes a value, recording who changed it
func (r *SettingRepository) Set(ctx context.Context, key, value string, updatedBy *int64) error {
	query := `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, key, value, updatedBy); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent writes a value only when the key is not stored yet
func (r *SettingRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to seed setting %s: %w", key, err)
	}
	return nil
}
