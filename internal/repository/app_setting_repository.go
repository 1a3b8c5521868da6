package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

// AppSettingRepository persists key/value application settings, including the
// fixed role-holder mappings consumed by the approval engine.
type AppSettingRepository struct {
	db *sqlx.DB
}

// NewAppSettingRepository constructs the repository.
func NewAppSettingRepository(db *sqlx.DB) *AppSettingRepository {
	return &AppSettingRepository{db: db}
}

// ListByKeys returns settings whose key is in the provided slice.
func (r *AppSettingRepository) ListByKeys(ctx context.Context, keys []string) ([]models.AppSetting, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT key, value, type, description, updated_by, updated_at
FROM app_settings WHERE key IN (%s) ORDER BY key ASC`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var settings []models.AppSetting
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("list app settings: %w", err)
	}
	return settings, nil
}

// Get fetches a single setting by key.
func (r *AppSettingRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	const query = `SELECT key, value, type, description, updated_by, updated_at FROM app_settings WHERE key = $1`
	var setting models.AppSetting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert inserts or updates a setting.
func (r *AppSettingRepository) Upsert(ctx context.Context, setting *models.AppSetting) error {
	const query = `INSERT INTO app_settings (key, value, type, description, updated_by, updated_at)
VALUES (:key, :value, :type, :description, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, description = EXCLUDED.description,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert app setting: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
