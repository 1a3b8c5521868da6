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

type loanRepository interface {
	Create(ctx context.Context, loan *models.LoanRequest) error
	FindByID(ctx context.Context, id string) (*models.LoanRequest, error)
	List(ctx context.Context, filter models.LoanFilter) ([]models.LoanRequest, int, error)
	UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error
	Reject(ctx context.Context, id, reason string, decidedAt time.Time) error
}

// LoanService owns the employee loan lifecycle.
type LoanService struct {
	repo      loanRepository
	employees employeeDirectory
	engine    approvalEngine
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLoanService constructs a LoanService.
func NewLoanService(repo loanRepository, employees employeeDirectory, engine approvalEngine, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LoanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{repo: repo, employees: employees, engine: engine, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates a loan request and routes it into its approval chain.
func (s *LoanService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.CreateLoanRequest) (*models.LoanRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid loan payload")
	}

	employeeID, err := employeeIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	ac := models.ApprovalContext{
		RequestType:  models.RequestTypeLoan,
		EmployeeID:   employeeID,
		DepartmentID: employee.DepartmentID,
	}

	progress, err := s.engine.Initialize(ctx, ac, claims.Role.PrivilegedBypass())
	if err != nil {
		return nil, err
	}

	loan := &models.LoanRequest{
		EmployeeID:        employeeID,
		DepartmentID:      employee.DepartmentID,
		Amount:            req.Amount,
		Installments:      req.Installments,
		Reason:            req.Reason,
		Status:            progress.Status,
		CurrentLevel:      progress.NextLevelNumber,
		CurrentApproverID: progress.NextApproverID,
	}
	if progress.NextLevelLabel != "" {
		loan.CurrentLevelLabel = &progress.NextLevelLabel
	}
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		loan.DecidedAt = &now
	}

	if err := s.repo.Create(ctx, loan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create loan request")
	}

	s.metrics.RecordApprovalDecision(models.RequestTypeLoan, "submit")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestSubmit, "loan_request", &loan.ID, loan, "", "")
	}
	return loan, nil
}

// Approve records an approval by the current approver and advances the chain.
func (s *LoanService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*models.LoanRequest, error) {
	loan, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if loan.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "loan request already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(loan.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}
	if loan.CurrentLevel == nil {
		return nil, appErrors.Clone(appErrors.ErrLevelNotInChain, "request has no recorded approval level")
	}

	progress, err := s.engine.Advance(ctx, s.approvalContext(loan), *loan.CurrentLevel, bypass)
	if err != nil {
		return nil, err
	}

	var decidedAt *time.Time
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		decidedAt = &now
	}
	if err := s.repo.UpdateProgress(ctx, loan.ID, progress, decidedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update loan progress")
	}

	loan.Status = progress.Status
	loan.CurrentLevel = progress.NextLevelNumber
	loan.CurrentApproverID = progress.NextApproverID
	loan.CurrentLevelLabel = nil
	if progress.NextLevelLabel != "" {
		loan.CurrentLevelLabel = &progress.NextLevelLabel
	}
	loan.DecidedAt = decidedAt

	s.metrics.RecordApprovalDecision(models.RequestTypeLoan, "approve")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestApprove, "loan_request", &loan.ID, progress, "", "")
	}
	return loan, nil
}

// Reject finalizes the request as rejected with a mandatory reason.
func (s *LoanService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.RejectRequest) (*models.LoanRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	loan, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if loan.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "loan request already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(loan.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}

	now := time.Now().UTC()
	if err := s.repo.Reject(ctx, loan.ID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject loan request")
	}

	loan.Status = models.ApprovalStatusRejected
	loan.CurrentApproverID = nil
	loan.RejectionReason = &req.Reason
	loan.DecidedAt = &now

	s.metrics.RecordApprovalDecision(models.RequestTypeLoan, "reject")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestReject, "loan_request", &loan.ID, map[string]string{"reason": req.Reason}, "", "")
	}
	return loan, nil
}

// Get returns a single loan request visible to the caller.
func (s *LoanService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.LoanRequest, error) {
	return s.findVisible(ctx, claims, id)
}

// List returns loan requests scoped to the caller.
func (s *LoanService) List(ctx context.Context, claims *models.JWTClaims, filter models.LoanFilter, approverInbox bool) ([]models.LoanRequest, int, error) {
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
	loans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list loan requests")
	}
	return loans, total, nil
}

// Timeline reconstructs the approval history for display.
func (s *LoanService) Timeline(ctx context.Context, claims *models.JWTClaims, id string) ([]models.ApprovalTimelineStep, error) {
	loan, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Timeline(ctx, s.approvalContext(loan), loan.Status, loan.CurrentLevel)
}

func (s *LoanService) approvalContext(loan *models.LoanRequest) models.ApprovalContext {
	return models.ApprovalContext{
		RequestType:  models.RequestTypeLoan,
		EmployeeID:   loan.EmployeeID,
		DepartmentID: loan.DepartmentID,
	}
}

func (s *LoanService) findVisible(ctx context.Context, claims *models.JWTClaims, id string) (*models.LoanRequest, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "loan request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load loan request")
	}
	if claims.Role.PrivilegedBypass() {
		return loan, nil
	}
	if loan.EmployeeID == claims.EmployeeID {
		return loan, nil
	}
	if loan.CurrentApproverID != nil && *loan.CurrentApproverID == claims.EmployeeID {
		return loan, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "loan request is not visible to you")
}
