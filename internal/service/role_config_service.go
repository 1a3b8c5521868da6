package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type roleSettingRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.AppSetting, error)
	Get(ctx context.Context, key string) (*models.AppSetting, error)
	Upsert(ctx context.Context, setting *models.AppSetting) error
}

type roleEmployeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

var roleKeys = []models.RoleKey{
	models.RoleKeyHRManager,
	models.RoleKeyFinanceManager,
	models.RoleKeyGeneralManager,
}

var roleKeyDescriptions = map[models.RoleKey]string{
	models.RoleKeyHRManager:      "Employee ID holding the HR manager role",
	models.RoleKeyFinanceManager: "Employee ID holding the finance manager role",
	models.RoleKeyGeneralManager: "Employee ID holding the general manager role",
}

// RoleConfigService resolves and administers the fixed role-holder mappings
// the approval engine routes to. Lookups are cached; assignments invalidate.
type RoleConfigService struct {
	repo      roleSettingRepository
	employees roleEmployeeReader
	cache     *CacheService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	fallbacks map[models.RoleKey]string
	cacheTTL  time.Duration
}

// RoleConfigServiceConfig tunes runtime behaviour.
type RoleConfigServiceConfig struct {
	Fallbacks map[models.RoleKey]string
	CacheTTL  time.Duration
}

// NewRoleConfigService constructs a RoleConfigService.
func NewRoleConfigService(repo roleSettingRepository, employees roleEmployeeReader, cache *CacheService, audit *AuditService, validate *validator.Validate, logger *zap.Logger, cfg RoleConfigServiceConfig) *RoleConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fallbacks := make(map[models.RoleKey]string, len(cfg.Fallbacks))
	for key, value := range cfg.Fallbacks {
		if value == "" {
			continue
		}
		fallbacks[key] = value
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RoleConfigService{
		repo:      repo,
		employees: employees,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		fallbacks: fallbacks,
		cacheTTL:  ttl,
	}
}

func roleHolderCacheKey(key models.RoleKey) string {
	return fmt.Sprintf("role_holder:%s", key)
}

// HolderID resolves the employee holding the given fixed role. When the
// setting is absent or blank the configured fallback ID is used and a
// warning logged.
func (s *RoleConfigService) HolderID(ctx context.Context, key models.RoleKey) (string, error) {
	if _, ok := roleKeyDescriptions[key]; !ok {
		return "", appErrors.New("CONFIGURATION_ERROR", http.StatusUnprocessableEntity, fmt.Sprintf("unknown role key %q", key))
	}

	cacheKey := roleHolderCacheKey(key)
	var cached string
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit && cached != "" {
		return cached, nil
	}

	setting, err := s.repo.Get(ctx, string(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.fallbackHolder(key, "role holder setting missing")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role holder")
	}

	value := strings.TrimSpace(setting.Value)
	if value == "" {
		return s.fallbackHolder(key, "role holder setting is blank")
	}

	_ = s.cache.Set(ctx, cacheKey, value, s.cacheTTL)
	return value, nil
}

// fallbackHolder returns the hardcoded per-role default. A role with neither
// a stored holder nor a fallback is a deployment misconfiguration.
func (s *RoleConfigService) fallbackHolder(key models.RoleKey, reason string) (string, error) {
	fallback, ok := s.fallbacks[key]
	if !ok {
		return "", appErrors.New("CONFIGURATION_ERROR", http.StatusUnprocessableEntity, fmt.Sprintf("no holder configured for role %q", key))
	}
	s.logger.Warn("using fallback role holder",
		zap.String("role_key", string(key)),
		zap.String("reason", reason),
		zap.String("fallback_employee_id", fallback))
	return fallback, nil
}

// List returns all fixed role mappings, annotating fallbacks for keys that
// have no stored setting.
func (s *RoleConfigService) List(ctx context.Context) ([]dto.RoleHolderItem, error) {
	keys := make([]string, len(roleKeys))
	for i, key := range roleKeys {
		keys[i] = string(key)
	}
	rows, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list role holders")
	}

	stored := make(map[string]string, len(rows))
	for _, row := range rows {
		stored[row.Key] = row.Value
	}

	items := make([]dto.RoleHolderItem, 0, len(roleKeys))
	for _, key := range roleKeys {
		item := dto.RoleHolderItem{Key: string(key)}
		if value, ok := stored[string(key)]; ok {
			item.EmployeeID = value
		} else if fallback, ok := s.fallbacks[key]; ok {
			item.EmployeeID = fallback
			item.Fallback = true
		}
		if item.EmployeeID != "" && s.employees != nil {
			if employee, err := s.employees.FindByID(ctx, item.EmployeeID); err == nil {
				item.EmployeeName = employee.FullName
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// SetHolder assigns an employee to a fixed role and invalidates the cached
// lookup. The employee must exist and be active.
func (s *RoleConfigService) SetHolder(ctx context.Context, req dto.UpdateRoleHolderRequest, updatedBy string) (*dto.RoleHolderItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role holder payload")
	}

	key := models.RoleKey(req.Key)
	description, ok := roleKeyDescriptions[key]
	if !ok {
		return nil, appErrors.New("CONFIGURATION_ERROR", http.StatusUnprocessableEntity, fmt.Sprintf("unknown role key %q", req.Key))
	}

	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if !employee.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee is inactive")
	}

	setting := &models.AppSetting{
		Key:         string(key),
		Value:       req.EmployeeID,
		Type:        models.SettingTypeString,
		Description: &description,
		UpdatedBy:   &updatedBy,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save role holder")
	}

	_ = s.cache.Invalidate(ctx, roleHolderCacheKey(key))

	if s.audit != nil {
		s.audit.Record(&updatedBy, models.AuditActionRoleHolderSet, "app_setting", &setting.Key, map[string]string{
			"key":         string(key),
			"employee_id": req.EmployeeID,
		}, "", "")
	}

	return &dto.RoleHolderItem{
		Key:          string(key),
		EmployeeID:   req.EmployeeID,
		EmployeeName: employee.FullName,
	}, nil
}
