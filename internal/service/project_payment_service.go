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

type projectPaymentRepository interface {
	Create(ctx context.Context, payment *models.ProjectPayment) error
	FindByID(ctx context.Context, id string) (*models.ProjectPayment, error)
	List(ctx context.Context, filter models.ProjectPaymentFilter) ([]models.ProjectPayment, int, error)
	UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error
	Reject(ctx context.Context, id, reason string, decidedAt time.Time) error
}

// ProjectPaymentService owns project disbursement requests. The approval
// context is project-scoped so project and regional manager rules resolve.
type ProjectPaymentService struct {
	repo      projectPaymentRepository
	projects  projectDirectory
	engine    approvalEngine
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectPaymentService constructs a ProjectPaymentService.
func NewProjectPaymentService(repo projectPaymentRepository, projects projectDirectory, engine approvalEngine, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProjectPaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectPaymentService{repo: repo, projects: projects, engine: engine, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates a payment request and routes it into its approval chain.
func (s *ProjectPaymentService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.CreateProjectPaymentRequest) (*models.ProjectPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	employeeID, err := employeeIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if !project.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project is inactive")
	}

	ac := models.ApprovalContext{
		RequestType: models.RequestTypeProjectPayment,
		EmployeeID:  employeeID,
		ProjectID:   &project.ID,
	}

	progress, err := s.engine.Initialize(ctx, ac, claims.Role.PrivilegedBypass())
	if err != nil {
		return nil, err
	}

	payment := &models.ProjectPayment{
		ProjectID:         project.ID,
		RequestedBy:       employeeID,
		Amount:            req.Amount,
		Description:       req.Description,
		Status:            progress.Status,
		CurrentLevel:      progress.NextLevelNumber,
		CurrentApproverID: progress.NextApproverID,
	}
	if progress.NextLevelLabel != "" {
		payment.CurrentLevelLabel = &progress.NextLevelLabel
	}
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		payment.DecidedAt = &now
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project payment")
	}

	s.metrics.RecordApprovalDecision(models.RequestTypeProjectPayment, "submit")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestSubmit, "project_payment", &payment.ID, payment, "", "")
	}
	return payment, nil
}

// Approve records an approval by the current approver and advances the chain.
func (s *ProjectPaymentService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*models.ProjectPayment, error) {
	payment, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "project payment already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(payment.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}
	if payment.CurrentLevel == nil {
		return nil, appErrors.Clone(appErrors.ErrLevelNotInChain, "request has no recorded approval level")
	}

	progress, err := s.engine.Advance(ctx, s.approvalContext(payment), *payment.CurrentLevel, bypass)
	if err != nil {
		return nil, err
	}

	var decidedAt *time.Time
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		decidedAt = &now
	}
	if err := s.repo.UpdateProgress(ctx, payment.ID, progress, decidedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment progress")
	}

	payment.Status = progress.Status
	payment.CurrentLevel = progress.NextLevelNumber
	payment.CurrentApproverID = progress.NextApproverID
	payment.CurrentLevelLabel = nil
	if progress.NextLevelLabel != "" {
		payment.CurrentLevelLabel = &progress.NextLevelLabel
	}
	payment.DecidedAt = decidedAt

	s.metrics.RecordApprovalDecision(models.RequestTypeProjectPayment, "approve")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestApprove, "project_payment", &payment.ID, progress, "", "")
	}
	return payment, nil
}

// Reject finalizes the payment as rejected with a mandatory reason.
func (s *ProjectPaymentService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.RejectRequest) (*models.ProjectPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	payment, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "project payment already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(payment.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}

	now := time.Now().UTC()
	if err := s.repo.Reject(ctx, payment.ID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject project payment")
	}

	payment.Status = models.ApprovalStatusRejected
	payment.CurrentApproverID = nil
	payment.RejectionReason = &req.Reason
	payment.DecidedAt = &now

	s.metrics.RecordApprovalDecision(models.RequestTypeProjectPayment, "reject")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestReject, "project_payment", &payment.ID, map[string]string{"reason": req.Reason}, "", "")
	}
	return payment, nil
}

// Get returns a single payment visible to the caller.
func (s *ProjectPaymentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.ProjectPayment, error) {
	return s.findVisible(ctx, claims, id)
}

// List returns payment requests scoped to the caller.
func (s *ProjectPaymentService) List(ctx context.Context, claims *models.JWTClaims, filter models.ProjectPaymentFilter, approverInbox bool) ([]models.ProjectPayment, int, error) {
	if !claims.Role.PrivilegedBypass() && approverInbox {
		employeeID, err := employeeIDFromClaims(claims)
		if err != nil {
			return nil, 0, err
		}
		filter.ApproverID = &employeeID
	}
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list project payments")
	}
	return payments, total, nil
}

// Timeline reconstructs the approval history for display.
func (s *ProjectPaymentService) Timeline(ctx context.Context, claims *models.JWTClaims, id string) ([]models.ApprovalTimelineStep, error) {
	payment, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Timeline(ctx, s.approvalContext(payment), payment.Status, payment.CurrentLevel)
}

func (s *ProjectPaymentService) approvalContext(payment *models.ProjectPayment) models.ApprovalContext {
	return models.ApprovalContext{
		RequestType: models.RequestTypeProjectPayment,
		EmployeeID:  payment.RequestedBy,
		ProjectID:   &payment.ProjectID,
	}
}

func (s *ProjectPaymentService) findVisible(ctx context.Context, claims *models.JWTClaims, id string) (*models.ProjectPayment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project payment")
	}
	if claims.Role.PrivilegedBypass() {
		return payment, nil
	}
	if payment.RequestedBy == claims.EmployeeID {
		return payment, nil
	}
	if payment.CurrentApproverID != nil && *payment.CurrentApproverID == claims.EmployeeID {
		return payment, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "project payment is not visible to you")
}
