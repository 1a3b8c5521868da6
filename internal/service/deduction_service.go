package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type deductionRepository interface {
	Create(ctx context.Context, deduction *models.Deduction) error
	FindByID(ctx context.Context, id string) (*models.Deduction, error)
	List(ctx context.Context, filter models.DeductionFilter) ([]models.Deduction, int, error)
	UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error
	Reject(ctx context.Context, id, reason string, decidedAt time.Time) error
}

// DeductionService owns payroll deduction submissions. HR files them on
// behalf of the affected employee; routing still follows that employee's
// chain context.
type DeductionService struct {
	repo      deductionRepository
	employees employeeDirectory
	engine    approvalEngine
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDeductionService constructs a DeductionService.
func NewDeductionService(repo deductionRepository, employees employeeDirectory, engine approvalEngine, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DeductionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeductionService{repo: repo, employees: employees, engine: engine, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates a deduction and routes it into its approval chain. The
// submitter's bypass never applies here; deductions always take the chain.
func (s *DeductionService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.CreateDeductionRequest) (*models.Deduction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deduction payload")
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

	ac := models.ApprovalContext{
		RequestType:  models.RequestTypeDeduction,
		EmployeeID:   employee.ID,
		DepartmentID: employee.DepartmentID,
	}

	progress, err := s.engine.Initialize(ctx, ac, false)
	if err != nil {
		return nil, err
	}

	deduction := &models.Deduction{
		EmployeeID:        employee.ID,
		DepartmentID:      employee.DepartmentID,
		Amount:            req.Amount,
		Reason:            req.Reason,
		EffectiveMonth:    req.EffectiveMonth,
		Status:            progress.Status,
		CurrentLevel:      progress.NextLevelNumber,
		CurrentApproverID: progress.NextApproverID,
	}
	if progress.NextLevelLabel != "" {
		deduction.CurrentLevelLabel = &progress.NextLevelLabel
	}
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		deduction.DecidedAt = &now
	}

	if err := s.repo.Create(ctx, deduction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deduction")
	}

	s.metrics.RecordApprovalDecision(models.RequestTypeDeduction, "submit")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestSubmit, "deduction", &deduction.ID, deduction, "", "")
	}
	return deduction, nil
}

// Approve records an approval by the current approver and advances the chain.
func (s *DeductionService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*models.Deduction, error) {
	deduction, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if deduction.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "deduction already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(deduction.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}
	if deduction.CurrentLevel == nil {
		return nil, appErrors.Clone(appErrors.ErrLevelNotInChain, "request has no recorded approval level")
	}

	progress, err := s.engine.Advance(ctx, s.approvalContext(deduction), *deduction.CurrentLevel, bypass)
	if err != nil {
		return nil, err
	}

	var decidedAt *time.Time
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		decidedAt = &now
	}
	if err := s.repo.UpdateProgress(ctx, deduction.ID, progress, decidedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deduction progress")
	}

	deduction.Status = progress.Status
	deduction.CurrentLevel = progress.NextLevelNumber
	deduction.CurrentApproverID = progress.NextApproverID
	deduction.CurrentLevelLabel = nil
	if progress.NextLevelLabel != "" {
		deduction.CurrentLevelLabel = &progress.NextLevelLabel
	}
	deduction.DecidedAt = decidedAt

	s.metrics.RecordApprovalDecision(models.RequestTypeDeduction, "approve")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestApprove, "deduction", &deduction.ID, progress, "", "")
	}
	return deduction, nil
}

// Reject finalizes the deduction as rejected with a mandatory reason.
func (s *DeductionService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.RejectRequest) (*models.Deduction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	deduction, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if deduction.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "deduction already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(deduction.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}

	now := time.Now().UTC()
	if err := s.repo.Reject(ctx, deduction.ID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject deduction")
	}

	deduction.Status = models.ApprovalStatusRejected
	deduction.CurrentApproverID = nil
	deduction.RejectionReason = &req.Reason
	deduction.DecidedAt = &now

	s.metrics.RecordApprovalDecision(models.RequestTypeDeduction, "reject")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestReject, "deduction", &deduction.ID, map[string]string{"reason": req.Reason}, "", "")
	}
	return deduction, nil
}

// Get returns a single deduction visible to the caller.
func (s *DeductionService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Deduction, error) {
	return s.findVisible(ctx, claims, id)
}

// List returns deductions scoped to the caller.
func (s *DeductionService) List(ctx context.Context, claims *models.JWTClaims, filter models.DeductionFilter, approverInbox bool) ([]models.Deduction, int, error) {
	if !claims.Role.PrivilegedBypass() {
		employeeID, err := employeeIDFromClaims(claims)
		if err != nil {
			return nil, 0, err
		}
		if approverInbox {
			filter.ApproverID = &employeeID
			filter.EmployeeID = nil
		} else {
			filter.EmployeeID = &employeeID
			filter.ApproverID = nil
		}
	}
	deductions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deductions")
	}
	return deductions, total, nil
}

// Timeline reconstructs the approval history for display.
func (s *DeductionService) Timeline(ctx context.Context, claims *models.JWTClaims, id string) ([]models.ApprovalTimelineStep, error) {
	deduction, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Timeline(ctx, s.approvalContext(deduction), deduction.Status, deduction.CurrentLevel)
}

func (s *DeductionService) approvalContext(deduction *models.Deduction) models.ApprovalContext {
	return models.ApprovalContext{
		RequestType:  models.RequestTypeDeduction,
		EmployeeID:   deduction.EmployeeID,
		DepartmentID: deduction.DepartmentID,
	}
}

func (s *DeductionService) findVisible(ctx context.Context, claims *models.JWTClaims, id string) (*models.Deduction, error) {
	deduction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deduction not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deduction")
	}
	if claims.Role.PrivilegedBypass() {
		return deduction, nil
	}
	if deduction.EmployeeID == claims.EmployeeID {
		return deduction, nil
	}
	if deduction.CurrentApproverID != nil && *deduction.CurrentApproverID == claims.EmployeeID {
		return deduction, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "deduction is not visible to you")
}
