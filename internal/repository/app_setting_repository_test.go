package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

func TestAppSettingRepositoryListByKeys(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppSettingRepository(db)
	rows := sqlmock.NewRows([]string{"key", "value", "type", "description", "updated_by", "updated_at"}).
		AddRow("hr_manager_employee_id", "emp-hr", "STRING", nil, nil, time.Now()).
		AddRow("finance_manager_employee_id", "emp-fin", "STRING", nil, nil, time.Now())
	mock.ExpectQuery("SELECT key, value").
		WithArgs("hr_manager_employee_id", "finance_manager_employee_id").
		WillReturnRows(rows)

	settings, err := repo.ListByKeys(context.Background(), []string{"hr_manager_employee_id", "finance_manager_employee_id"})
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "emp-hr", settings[0].Value)
	assert.Equal(t, "emp-fin", settings[1].Value)
}

func TestAppSettingRepositoryListByKeysEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppSettingRepository(db)
	settings, err := repo.ListByKeys(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestAppSettingRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppSettingRepository(db)
	mock.ExpectExec("INSERT INTO app_settings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	updatedBy := "admin-1"
	setting := &models.AppSetting{
		Key:       string(models.RoleKeyHRManager),
		Value:     "emp-hr",
		Type:      models.SettingTypeString,
		UpdatedBy: &updatedBy,
	}
	require.NoError(t, repo.Upsert(context.Background(), setting))
	assert.False(t, setting.UpdatedAt.IsZero())
}
