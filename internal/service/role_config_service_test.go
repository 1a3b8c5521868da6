package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type settingRepoStub struct {
	items map[string]models.AppSetting
	err   error
}

func (s *settingRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.AppSetting, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.AppSetting{}
	for _, key := range keys {
		if setting, ok := s.items[key]; ok {
			result = append(result, setting)
		}
	}
	return result, nil
}

func (s *settingRepoStub) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	if s.err != nil {
		return nil, s.err
	}
	if setting, ok := s.items[key]; ok {
		return &setting, nil
	}
	return nil, sql.ErrNoRows
}

func (s *settingRepoStub) Upsert(ctx context.Context, setting *models.AppSetting) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.AppSetting)
	}
	s.items[setting.Key] = *setting
	return nil
}

func newTestRoleConfigService(repo *settingRepoStub, employees *employeesStub) *RoleConfigService {
	if employees == nil {
		employees = &employeesStub{}
	}
	return NewRoleConfigService(repo, employees, nil, nil, validator.New(), nil, RoleConfigServiceConfig{
		Fallbacks: map[models.RoleKey]string{
			models.RoleKeyHRManager: "emp-hr-fallback",
		},
	})
}

func TestRoleConfigHolderIDStored(t *testing.T) {
	repo := &settingRepoStub{items: map[string]models.AppSetting{
		string(models.RoleKeyHRManager): {Key: string(models.RoleKeyHRManager), Value: "emp-hr"},
	}}
	svc := newTestRoleConfigService(repo, nil)

	holder, err := svc.HolderID(context.Background(), models.RoleKeyHRManager)
	require.NoError(t, err)
	assert.Equal(t, "emp-hr", holder)
}

func TestRoleConfigHolderIDFallback(t *testing.T) {
	svc := newTestRoleConfigService(&settingRepoStub{}, nil)

	holder, err := svc.HolderID(context.Background(), models.RoleKeyHRManager)
	require.NoError(t, err)
	assert.Equal(t, "emp-hr-fallback", holder)
}

func TestRoleConfigHolderIDBlankValueFallsBack(t *testing.T) {
	repo := &settingRepoStub{items: map[string]models.AppSetting{
		string(models.RoleKeyHRManager): {Key: string(models.RoleKeyHRManager), Value: "   "},
	}}
	svc := newTestRoleConfigService(repo, nil)

	holder, err := svc.HolderID(context.Background(), models.RoleKeyHRManager)
	require.NoError(t, err)
	assert.Equal(t, "emp-hr-fallback", holder)
}

func TestRoleConfigHolderIDBlankValueWithoutFallback(t *testing.T) {
	repo := &settingRepoStub{items: map[string]models.AppSetting{
		string(models.RoleKeyFinanceManager): {Key: string(models.RoleKeyFinanceManager), Value: ""},
	}}
	svc := newTestRoleConfigService(repo, nil)

	_, err := svc.HolderID(context.Background(), models.RoleKeyFinanceManager)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestRoleConfigHolderIDMissingWithoutFallback(t *testing.T) {
	svc := newTestRoleConfigService(&settingRepoStub{}, nil)

	_, err := svc.HolderID(context.Background(), models.RoleKeyFinanceManager)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestRoleConfigHolderIDUnknownKey(t *testing.T) {
	svc := newTestRoleConfigService(&settingRepoStub{}, nil)

	_, err := svc.HolderID(context.Background(), models.RoleKey("ops_manager_employee_id"))
	require.Error(t, err)
}

func TestRoleConfigSetHolder(t *testing.T) {
	repo := &settingRepoStub{}
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-9": {ID: "emp-9", FullName: "Gita Pertiwi", Active: true},
	}}
	svc := newTestRoleConfigService(repo, employees)

	item, err := svc.SetHolder(context.Background(), dto.UpdateRoleHolderRequest{
		Key:        string(models.RoleKeyGeneralManager),
		EmployeeID: "emp-9",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "emp-9", item.EmployeeID)
	assert.Equal(t, "Gita Pertiwi", item.EmployeeName)

	stored := repo.items[string(models.RoleKeyGeneralManager)]
	assert.Equal(t, "emp-9", stored.Value)
}

func TestRoleConfigSetHolderInactiveEmployee(t *testing.T) {
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-9": {ID: "emp-9", Active: false},
	}}
	svc := newTestRoleConfigService(&settingRepoStub{}, employees)

	_, err := svc.SetHolder(context.Background(), dto.UpdateRoleHolderRequest{
		Key:        string(models.RoleKeyGeneralManager),
		EmployeeID: "emp-9",
	}, "admin-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRoleConfigSetHolderUnknownKey(t *testing.T) {
	svc := newTestRoleConfigService(&settingRepoStub{}, &employeesStub{items: map[string]models.Employee{
		"emp-9": {ID: "emp-9", Active: true},
	}})

	_, err := svc.SetHolder(context.Background(), dto.UpdateRoleHolderRequest{
		Key:        "made_up_key",
		EmployeeID: "emp-9",
	}, "admin-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestRoleConfigList(t *testing.T) {
	repo := &settingRepoStub{items: map[string]models.AppSetting{
		string(models.RoleKeyFinanceManager): {Key: string(models.RoleKeyFinanceManager), Value: "emp-fin"},
	}}
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-fin": {ID: "emp-fin", FullName: "Fajar Nugroho", Active: true},
	}}
	svc := newTestRoleConfigService(repo, employees)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	byKey := make(map[string]dto.RoleHolderItem, len(items))
	for _, item := range items {
		byKey[item.Key] = item
	}
	assert.Equal(t, "emp-fin", byKey[string(models.RoleKeyFinanceManager)].EmployeeID)
	assert.False(t, byKey[string(models.RoleKeyFinanceManager)].Fallback)
	assert.Equal(t, "emp-hr-fallback", byKey[string(models.RoleKeyHRManager)].EmployeeID)
	assert.True(t, byKey[string(models.RoleKeyHRManager)].Fallback)
	assert.Empty(t, byKey[string(models.RoleKeyGeneralManager)].EmployeeID)
}
