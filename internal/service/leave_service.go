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

// approvalEngine is the routing surface the request services depend on.
type approvalEngine interface {
	Initialize(ctx context.Context, ac models.ApprovalContext, bypass bool) (models.ApprovalProgress, error)
	Advance(ctx context.Context, ac models.ApprovalContext, currentLevel int, bypass bool) (models.ApprovalProgress, error)
	CanApprove(currentApproverID *string, employeeID string, bypass bool) bool
	Timeline(ctx context.Context, ac models.ApprovalContext, status models.ApprovalStatus, currentLevel *int) ([]models.ApprovalTimelineStep, error)
}

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveRequest) error
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error)
	UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error
	Reject(ctx context.Context, id, reason string, decidedAt time.Time) error
}

const dateLayout = "2006-01-02"

func employeeIDFromClaims(claims *models.JWTClaims) (string, error) {
	if claims == nil || claims.EmployeeID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "user has no linked employee profile")
	}
	return claims.EmployeeID, nil
}

// LeaveService owns the leave request lifecycle: submission, decisions and
// the reconstructed approval timeline.
type LeaveService struct {
	repo      leaveRepository
	employees employeeDirectory
	engine    approvalEngine
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, employees employeeDirectory, engine approvalEngine, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{repo: repo, employees: employees, engine: engine, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates a leave request and routes it into its approval chain.
func (s *LeaveService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.CreateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	employeeID, err := employeeIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date is before start date")
	}
	totalDays := int(end.Sub(start).Hours()/24) + 1

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	ac := models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   employeeID,
		DepartmentID: employee.DepartmentID,
	}

	progress, err := s.engine.Initialize(ctx, ac, claims.Role.PrivilegedBypass())
	if err != nil {
		return nil, err
	}

	leave := &models.LeaveRequest{
		EmployeeID:        employeeID,
		DepartmentID:      employee.DepartmentID,
		LeaveType:         models.LeaveType(req.LeaveType),
		StartDate:         start,
		EndDate:           end,
		TotalDays:         totalDays,
		Reason:            req.Reason,
		Status:            progress.Status,
		CurrentLevel:      progress.NextLevelNumber,
		CurrentApproverID: progress.NextApproverID,
	}
	if progress.NextLevelLabel != "" {
		leave.CurrentLevelLabel = &progress.NextLevelLabel
	}
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		leave.DecidedAt = &now
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}

	s.metrics.RecordApprovalDecision(models.RequestTypeLeave, "submit")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestSubmit, "leave_request", &leave.ID, leave, "", "")
	}
	return leave, nil
}

// Approve records an approval by the current approver and advances the chain.
func (s *LeaveService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*models.LeaveRequest, error) {
	leave, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if leave.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "leave request already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(leave.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}
	if leave.CurrentLevel == nil {
		return nil, appErrors.Clone(appErrors.ErrLevelNotInChain, "request has no recorded approval level")
	}

	progress, err := s.engine.Advance(ctx, s.approvalContext(leave), *leave.CurrentLevel, bypass)
	if err != nil {
		return nil, err
	}

	var decidedAt *time.Time
	if progress.Status.Terminal() {
		now := time.Now().UTC()
		decidedAt = &now
	}
	if err := s.repo.UpdateProgress(ctx, leave.ID, progress, decidedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave progress")
	}

	leave.Status = progress.Status
	leave.CurrentLevel = progress.NextLevelNumber
	leave.CurrentApproverID = progress.NextApproverID
	leave.CurrentLevelLabel = nil
	if progress.NextLevelLabel != "" {
		leave.CurrentLevelLabel = &progress.NextLevelLabel
	}
	leave.DecidedAt = decidedAt

	s.metrics.RecordApprovalDecision(models.RequestTypeLeave, "approve")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestApprove, "leave_request", &leave.ID, progress, "", "")
	}
	return leave, nil
}

// Reject finalizes the request as rejected with a mandatory reason. The
// recorded level is kept so the timeline can point at the rejecting step.
func (s *LeaveService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.RejectRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	leave, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if leave.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrRequestFinalized, "leave request already decided")
	}

	bypass := claims.Role.PrivilegedBypass()
	if !s.engine.CanApprove(leave.CurrentApproverID, claims.EmployeeID, bypass) {
		return nil, appErrors.Clone(appErrors.ErrNotCurrentApprover, "you are not the current approver")
	}

	now := time.Now().UTC()
	if err := s.repo.Reject(ctx, leave.ID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave request")
	}

	leave.Status = models.ApprovalStatusRejected
	leave.CurrentApproverID = nil
	leave.RejectionReason = &req.Reason
	leave.DecidedAt = &now

	s.metrics.RecordApprovalDecision(models.RequestTypeLeave, "reject")
	if s.audit != nil {
		s.audit.Record(&claims.UserID, models.AuditActionRequestReject, "leave_request", &leave.ID, map[string]string{"reason": req.Reason}, "", "")
	}
	return leave, nil
}

// Get returns a single leave request visible to the caller.
func (s *LeaveService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.LeaveRequest, error) {
	return s.findVisible(ctx, claims, id)
}

// List returns leave requests scoped to the caller. Non-privileged callers
// see their own submissions, or their approval inbox when approverInbox set.
func (s *LeaveService) List(ctx context.Context, claims *models.JWTClaims, filter models.LeaveFilter, approverInbox bool) ([]models.LeaveRequest, int, error) {
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
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return leaves, total, nil
}

// Timeline reconstructs the approval history for display.
func (s *LeaveService) Timeline(ctx context.Context, claims *models.JWTClaims, id string) ([]models.ApprovalTimelineStep, error) {
	leave, err := s.findVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Timeline(ctx, s.approvalContext(leave), leave.Status, leave.CurrentLevel)
}

func (s *LeaveService) approvalContext(leave *models.LeaveRequest) models.ApprovalContext {
	return models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   leave.EmployeeID,
		DepartmentID: leave.DepartmentID,
	}
}

func (s *LeaveService) findVisible(ctx context.Context, claims *models.JWTClaims, id string) (*models.LeaveRequest, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if claims.Role.PrivilegedBypass() {
		return leave, nil
	}
	if leave.EmployeeID == claims.EmployeeID {
		return leave, nil
	}
	if leave.CurrentApproverID != nil && *leave.CurrentApproverID == claims.EmployeeID {
		return leave, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "leave request is not visible to you")
}
