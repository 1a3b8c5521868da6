package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type chainRuleReader interface {
	FindByDepartment(ctx context.Context, requestType models.RequestType, departmentID string) ([]models.ApprovalLevelRule, error)
	FindByProject(ctx context.Context, requestType models.RequestType, projectID string) ([]models.ApprovalLevelRule, error)
	FindGlobal(ctx context.Context, requestType models.RequestType) ([]models.ApprovalLevelRule, error)
}

type employeeDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type departmentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type projectDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type roleHolderResolver interface {
	HolderID(ctx context.Context, key models.RoleKey) (string, error)
}

// ApprovalService routes business requests through configured approval
// chains. It is stateless: approvers are re-resolved from the current
// organizational data on every call, so manager changes affect in-flight
// requests immediately.
type ApprovalService struct {
	chains          chainRuleReader
	employees       employeeDirectory
	departments     departmentDirectory
	projects        projectDirectory
	roles           roleHolderResolver
	metrics         *MetricsService
	logger          *zap.Logger
	namePlaceholder string
}

// ApprovalServiceConfig tunes runtime behaviour.
type ApprovalServiceConfig struct {
	NamePlaceholder string
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(chains chainRuleReader, employees employeeDirectory, departments departmentDirectory, projects projectDirectory, roles roleHolderResolver, metrics *MetricsService, logger *zap.Logger, cfg ApprovalServiceConfig) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	placeholder := cfg.NamePlaceholder
	if placeholder == "" {
		placeholder = "Unknown Employee"
	}
	return &ApprovalService{
		chains:          chains,
		employees:       employees,
		departments:     departments,
		projects:        projects,
		roles:           roles,
		metrics:         metrics,
		logger:          logger,
		namePlaceholder: placeholder,
	}
}

// ResolveChain selects the approval chain for the request context. Scoping
// precedence is department, then project, then the global chain. An empty
// result everywhere is a configuration error.
func (s *ApprovalService) ResolveChain(ctx context.Context, ac models.ApprovalContext) ([]models.ApprovalLevelRule, error) {
	if ac.DepartmentID != nil && *ac.DepartmentID != "" {
		rules, err := s.chains.FindByDepartment(ctx, ac.RequestType, *ac.DepartmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department chain")
		}
		if len(rules) > 0 {
			return rules, nil
		}
	}

	if ac.ProjectID != nil && *ac.ProjectID != "" {
		rules, err := s.chains.FindByProject(ctx, ac.RequestType, *ac.ProjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project chain")
		}
		if len(rules) > 0 {
			return rules, nil
		}
	}

	rules, err := s.chains.FindGlobal(ctx, ac.RequestType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load global chain")
	}
	if len(rules) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoApprovalChain, fmt.Sprintf("no approval chain configured for %s", ac.RequestType))
	}
	return rules, nil
}

// RuleLabel returns the display label for a routing rule.
func (s *ApprovalService) RuleLabel(rule models.RoutingRule) string {
	switch rule {
	case models.RuleDirectManager:
		return "Direct Manager"
	case models.RuleProjectManager:
		return "Project Manager"
	case models.RuleRegionalManager:
		return "Regional Manager"
	case models.RuleHRManager:
		return "HR Manager"
	case models.RuleFinanceManager:
		return "Finance Manager"
	case models.RuleGeneralManager:
		return "General Manager"
	case models.RuleFixedEmployee:
		return "Designated Approver"
	}
	return string(rule)
}

// resolveApprover maps one chain level to a concrete employee ID. Missing
// managers degrade to the HR manager; an unknown rule tag is fatal because it
// means the chain table holds data this version cannot interpret.
func (s *ApprovalService) resolveApprover(ctx context.Context, rule models.ApprovalLevelRule, ac models.ApprovalContext) (string, error) {
	switch rule.ApproverRule {
	case models.RuleDirectManager:
		return s.resolveDirectManager(ctx, ac)
	case models.RuleProjectManager:
		return s.resolveProjectManager(ctx, ac, false)
	case models.RuleRegionalManager:
		return s.resolveProjectManager(ctx, ac, true)
	case models.RuleHRManager:
		return s.roles.HolderID(ctx, models.RoleKeyHRManager)
	case models.RuleFinanceManager:
		return s.roles.HolderID(ctx, models.RoleKeyFinanceManager)
	case models.RuleGeneralManager:
		return s.roles.HolderID(ctx, models.RoleKeyGeneralManager)
	case models.RuleFixedEmployee:
		if rule.ApproverEmployeeID == nil || *rule.ApproverEmployeeID == "" {
			return s.hrFallback(ctx, "fixed approver not set", zap.String("rule_id", rule.ID))
		}
		return *rule.ApproverEmployeeID, nil
	}
	return "", appErrors.Clone(appErrors.ErrUnknownRoutingRule, fmt.Sprintf("unrecognized approver rule %q", rule.ApproverRule))
}

// resolveDirectManager routes to the manager of the department the request
// was raised under, taken from the context rather than re-derived from the
// employee row.
func (s *ApprovalService) resolveDirectManager(ctx context.Context, ac models.ApprovalContext) (string, error) {
	if ac.DepartmentID == nil || *ac.DepartmentID == "" {
		return s.hrFallback(ctx, "request has no department", zap.String("employee_id", ac.EmployeeID))
	}
	department, err := s.departments.FindByID(ctx, *ac.DepartmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.hrFallback(ctx, "department not found", zap.String("department_id", *ac.DepartmentID))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if department.ManagerID == nil || *department.ManagerID == "" {
		return s.hrFallback(ctx, "department has no manager", zap.String("department_id", department.ID))
	}
	return *department.ManagerID, nil
}

func (s *ApprovalService) resolveProjectManager(ctx context.Context, ac models.ApprovalContext, regional bool) (string, error) {
	if ac.ProjectID == nil || *ac.ProjectID == "" {
		return s.hrFallback(ctx, "request has no project", zap.String("employee_id", ac.EmployeeID))
	}
	project, err := s.projects.FindByID(ctx, *ac.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.hrFallback(ctx, "project not found", zap.String("project_id", *ac.ProjectID))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	managerID := project.ManagerID
	if regional {
		managerID = project.RegionalManagerID
	}
	if managerID == nil || *managerID == "" {
		return s.hrFallback(ctx, "project manager not assigned", zap.String("project_id", project.ID), zap.Bool("regional", regional))
	}
	return *managerID, nil
}

// hrFallback substitutes the HR manager when routing data is incomplete. The
// request keeps moving; the gap is logged and counted for operators.
func (s *ApprovalService) hrFallback(ctx context.Context, reason string, fields ...zap.Field) (string, error) {
	s.logger.Warn("approver resolution fell back to HR manager", append(fields, zap.String("reason", reason))...)
	s.metrics.RecordRoutingFallback()
	return s.roles.HolderID(ctx, models.RoleKeyHRManager)
}

// Initialize computes the approval progress for a newly submitted request.
// Privileged submitters bypass the chain entirely.
func (s *ApprovalService) Initialize(ctx context.Context, ac models.ApprovalContext, bypass bool) (models.ApprovalProgress, error) {
	if bypass {
		return models.ApprovalProgress{Status: models.ApprovalStatusApproved}, nil
	}

	chain, err := s.ResolveChain(ctx, ac)
	if err != nil {
		return models.ApprovalProgress{}, err
	}

	first := chain[0]
	approverID, err := s.resolveApprover(ctx, first, ac)
	if err != nil {
		return models.ApprovalProgress{}, err
	}

	level := first.LevelNumber
	return models.ApprovalProgress{
		NextApproverID:  &approverID,
		NextLevelNumber: &level,
		NextLevelLabel:  s.RuleLabel(first.ApproverRule),
		Status:          models.ApprovalStatusNeedsApproval,
	}, nil
}

// Advance moves a request past the given level after an approval. It returns
// the next pending level, or a terminal approved status when the level was
// final or the chain is exhausted.
func (s *ApprovalService) Advance(ctx context.Context, ac models.ApprovalContext, currentLevel int, bypass bool) (models.ApprovalProgress, error) {
	if bypass {
		return models.ApprovalProgress{Status: models.ApprovalStatusApproved}, nil
	}

	chain, err := s.ResolveChain(ctx, ac)
	if err != nil {
		return models.ApprovalProgress{}, err
	}

	index := -1
	for i, rule := range chain {
		if rule.LevelNumber == currentLevel {
			index = i
			break
		}
	}
	if index < 0 {
		return models.ApprovalProgress{}, appErrors.Clone(appErrors.ErrLevelNotInChain, fmt.Sprintf("level %d no longer exists in the %s chain", currentLevel, ac.RequestType))
	}

	current := chain[index]
	if current.IsFinalLevel {
		return models.ApprovalProgress{Status: models.ApprovalStatusApproved}, nil
	}

	if index+1 >= len(chain) {
		s.logger.Warn("approval chain exhausted without a final level",
			zap.String("request_type", string(ac.RequestType)),
			zap.Int("last_level", current.LevelNumber))
		return models.ApprovalProgress{Status: models.ApprovalStatusApproved}, nil
	}

	next := chain[index+1]
	approverID, err := s.resolveApprover(ctx, next, ac)
	if err != nil {
		return models.ApprovalProgress{}, err
	}

	level := next.LevelNumber
	return models.ApprovalProgress{
		NextApproverID:  &approverID,
		NextLevelNumber: &level,
		NextLevelLabel:  s.RuleLabel(next.ApproverRule),
		Status:          models.ApprovalStatusNeedsApproval,
	}, nil
}

// CanApprove reports whether the employee may act on the request right now.
// Only the exact current approver qualifies, unless the caller is privileged.
func (s *ApprovalService) CanApprove(currentApproverID *string, employeeID string, bypass bool) bool {
	if bypass {
		return true
	}
	if currentApproverID == nil || employeeID == "" {
		return false
	}
	return *currentApproverID == employeeID
}

// Timeline reconstructs the display history of a request from the live chain
// and its stored status. Nothing is persisted per step; renames and manager
// changes show through immediately.
func (s *ApprovalService) Timeline(ctx context.Context, ac models.ApprovalContext, status models.ApprovalStatus, currentLevel *int) ([]models.ApprovalTimelineStep, error) {
	chain, err := s.ResolveChain(ctx, ac)
	if err != nil {
		return nil, err
	}

	steps := make([]models.ApprovalTimelineStep, 0, len(chain))
	for _, rule := range chain {
		approverID, err := s.resolveApprover(ctx, rule, ac)
		if err != nil {
			return nil, err
		}

		name := s.namePlaceholder
		if employee, err := s.employees.FindByID(ctx, approverID); err == nil {
			name = employee.FullName
		}

		steps = append(steps, models.ApprovalTimelineStep{
			LevelNumber:  rule.LevelNumber,
			LevelLabel:   s.RuleLabel(rule.ApproverRule),
			ApproverID:   approverID,
			ApproverName: name,
			Status:       stepStatus(status, currentLevel, rule.LevelNumber),
		})
	}
	return steps, nil
}

func stepStatus(status models.ApprovalStatus, currentLevel *int, levelNumber int) models.TimelineStepStatus {
	switch status {
	case models.ApprovalStatusApproved:
		return models.StepCompleted
	case models.ApprovalStatusRejected:
		if currentLevel == nil {
			return models.StepRejected
		}
		switch {
		case levelNumber < *currentLevel:
			return models.StepCompleted
		case levelNumber == *currentLevel:
			return models.StepRejected
		default:
			return models.StepSkipped
		}
	default:
		if currentLevel == nil {
			return models.StepFuture
		}
		switch {
		case levelNumber < *currentLevel:
			return models.StepCompleted
		case levelNumber == *currentLevel:
			return models.StepPending
		default:
			return models.StepFuture
		}
	}
}
