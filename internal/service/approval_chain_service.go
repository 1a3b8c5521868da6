package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type approvalChainAdminRepository interface {
	FindByDepartment(ctx context.Context, requestType models.RequestType, departmentID string) ([]models.ApprovalLevelRule, error)
	FindByProject(ctx context.Context, requestType models.RequestType, projectID string) ([]models.ApprovalLevelRule, error)
	FindGlobal(ctx context.Context, requestType models.RequestType) ([]models.ApprovalLevelRule, error)
	List(ctx context.Context, filter models.ApprovalChainFilter) ([]models.ApprovalLevelRule, int, error)
	FindByID(ctx context.Context, id string) (*models.ApprovalLevelRule, error)
	Create(ctx context.Context, rule *models.ApprovalLevelRule) error
	Update(ctx context.Context, rule *models.ApprovalLevelRule) error
	Deactivate(ctx context.Context, id string) error
}

// ApprovalChainService administers approval level rules. Edits apply to
// in-flight requests immediately; a removed level surfaces later as a
// configuration error on the affected request, never as a silent skip.
type ApprovalChainService struct {
	repo      approvalChainAdminRepository
	employees employeeDirectory
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalChainService constructs an ApprovalChainService.
func NewApprovalChainService(repo approvalChainAdminRepository, employees employeeDirectory, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ApprovalChainService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalChainService{repo: repo, employees: employees, audit: audit, validator: validate, logger: logger}
}

// List returns chain rules matching the filter.
func (s *ApprovalChainService) List(ctx context.Context, filter models.ApprovalChainFilter) ([]models.ApprovalLevelRule, int, error) {
	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chain rules")
	}
	return rules, total, nil
}

// Get returns one chain rule.
func (s *ApprovalChainService) Get(ctx context.Context, id string) (*models.ApprovalLevelRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chain rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chain rule")
	}
	return rule, nil
}

// Create adds a level to a chain after structural validation.
func (s *ApprovalChainService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateChainRuleRequest) (*models.ApprovalLevelRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chain rule payload")
	}

	rule := &models.ApprovalLevelRule{
		RequestType:        models.RequestType(req.RequestType),
		DepartmentID:       req.DepartmentID,
		ProjectID:          req.ProjectID,
		LevelNumber:        req.LevelNumber,
		ApproverRule:       models.RoutingRule(req.ApproverRule),
		ApproverEmployeeID: req.ApproverEmployeeID,
		IsFinalLevel:       req.IsFinalLevel,
		Active:             true,
	}
	if err := s.validateRule(ctx, rule, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chain rule")
	}

	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionChainRuleChange, "approval_level_rule", &rule.ID, rule, "", "")
	}
	return rule, nil
}

// Update edits a level in place after structural validation.
func (s *ApprovalChainService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateChainRuleRequest) (*models.ApprovalLevelRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chain rule payload")
	}

	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.LevelNumber = req.LevelNumber
	rule.ApproverRule = models.RoutingRule(req.ApproverRule)
	rule.ApproverEmployeeID = req.ApproverEmployeeID
	rule.IsFinalLevel = req.IsFinalLevel
	rule.Active = req.Active

	if err := s.validateRule(ctx, rule, rule.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update chain rule")
	}

	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionChainRuleChange, "approval_level_rule", &rule.ID, rule, "", "")
	}
	return rule, nil
}

// Deactivate removes a level from its chain without deleting history.
func (s *ApprovalChainService) Deactivate(ctx context.Context, claims *models.JWTClaims, id string) error {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, rule.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate chain rule")
	}

	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionChainRuleChange, "approval_level_rule", &rule.ID, map[string]bool{"active": false}, "", "")
	}
	return nil
}

func (s *ApprovalChainService) validateRule(ctx context.Context, rule *models.ApprovalLevelRule, excludeID string) error {
	if !rule.RequestType.Known() {
		return configurationErrorf("unknown request type %q", rule.RequestType)
	}
	if !rule.ApproverRule.Known() {
		return appErrors.Clone(appErrors.ErrUnknownRoutingRule, fmt.Sprintf("unrecognized approver rule %q", rule.ApproverRule))
	}
	if rule.DepartmentID != nil && rule.ProjectID != nil {
		return configurationErrorf("a rule cannot be scoped to both a department and a project")
	}
	if rule.ApproverRule == models.RuleFixedEmployee {
		if rule.ApproverEmployeeID == nil || *rule.ApproverEmployeeID == "" {
			return configurationErrorf("fixed approver rules require an approver employee id")
		}
		if _, err := s.employees.FindByID(ctx, *rule.ApproverEmployeeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "approver employee not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify approver employee")
		}
	}

	siblings, err := s.scopeChain(ctx, rule)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.ID == excludeID {
			continue
		}
		if sibling.LevelNumber == rule.LevelNumber {
			return configurationErrorf("level %d already exists in this chain", rule.LevelNumber)
		}
	}
	return nil
}

func (s *ApprovalChainService) scopeChain(ctx context.Context, rule *models.ApprovalLevelRule) ([]models.ApprovalLevelRule, error) {
	switch {
	case rule.DepartmentID != nil && *rule.DepartmentID != "":
		return s.repo.FindByDepartment(ctx, rule.RequestType, *rule.DepartmentID)
	case rule.ProjectID != nil && *rule.ProjectID != "":
		return s.repo.FindByProject(ctx, rule.RequestType, *rule.ProjectID)
	default:
		return s.repo.FindGlobal(ctx, rule.RequestType)
	}
}

func configurationErrorf(format string, args ...interface{}) *appErrors.Error {
	return appErrors.New("CONFIGURATION_ERROR", http.StatusUnprocessableEntity, fmt.Sprintf(format, args...))
}
