package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

const leaveColumns = `id, employee_id, department_id, leave_type, start_date, end_date, total_days, reason, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at`

// LeaveRepository manages persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a new leave request with its initial approval progress.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now
	const query = `INSERT INTO leave_requests (id, employee_id, department_id, leave_type, start_date, end_date, total_days, reason, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at)
VALUES (:id, :employee_id, :department_id, :leave_type, :start_date, :end_date, :total_days, :reason, :status, :current_level, :current_approver_id, :current_level_label, :rejection_reason, :decided_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// FindByID fetches a leave request by ID.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE id = $1`, leaveColumns)
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// List returns leave requests matching filters along with total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	base := "FROM leave_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, *filter.EmployeeID)
	}
	if filter.ApproverID != nil {
		conditions = append(conditions, fmt.Sprintf("current_approver_id = $%d", len(args)+1))
		args = append(args, *filter.ApproverID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", leaveColumns, base, size, offset)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	return leaves, total, nil
}

// UpdateProgress replaces the stored approval progress with engine output.
func (r *LeaveRepository) UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error {
	const query = `UPDATE leave_requests
SET status = $2, current_level = $3, current_approver_id = $4, current_level_label = $5, decided_at = $6, updated_at = $7
WHERE id = $1`
	label := nullableLabel(progress.NextLevelLabel)
	if _, err := r.db.ExecContext(ctx, query, id, progress.Status, progress.NextLevelNumber, progress.NextApproverID, label, decidedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update leave progress: %w", err)
	}
	return nil
}

// Reject marks the request rejected, clearing the approver but keeping the
// current level so the timeline can mark the rejecting step.
func (r *LeaveRepository) Reject(ctx context.Context, id, reason string, decidedAt time.Time) error {
	const query = `UPDATE leave_requests
SET status = $2, current_approver_id = NULL, rejection_reason = $3, decided_at = $4, updated_at = $4
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ApprovalStatusRejected, reason, decidedAt); err != nil {
		return fmt.Errorf("reject leave request: %w", err)
	}
	return nil
}

func nullableLabel(label string) *string {
	if label == "" {
		return nil
	}
	return &label
}
