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

const deductionColumns = `id, employee_id, department_id, amount, reason, effective_month, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at`

// DeductionRepository manages persistence for payroll deductions.
type DeductionRepository struct {
	db *sqlx.DB
}

// NewDeductionRepository constructs a DeductionRepository.
func NewDeductionRepository(db *sqlx.DB) *DeductionRepository {
	return &DeductionRepository{db: db}
}

// Create inserts a new deduction with its initial approval progress.
func (r *DeductionRepository) Create(ctx context.Context, deduction *models.Deduction) error {
	if deduction.ID == "" {
		deduction.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	deduction.CreatedAt = now
	deduction.UpdatedAt = now
	const query = `INSERT INTO deductions (id, employee_id, department_id, amount, reason, effective_month, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at)
VALUES (:id, :employee_id, :department_id, :amount, :reason, :effective_month, :status, :current_level, :current_approver_id, :current_level_label, :rejection_reason, :decided_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deduction); err != nil {
		return fmt.Errorf("create deduction: %w", err)
	}
	return nil
}

// FindByID fetches a deduction by ID.
func (r *DeductionRepository) FindByID(ctx context.Context, id string) (*models.Deduction, error) {
	query := fmt.Sprintf(`SELECT %s FROM deductions WHERE id = $1`, deductionColumns)
	var deduction models.Deduction
	if err := r.db.GetContext(ctx, &deduction, query, id); err != nil {
		return nil, err
	}
	return &deduction, nil
}

// List returns deductions matching filters along with total count.
func (r *DeductionRepository) List(ctx context.Context, filter models.DeductionFilter) ([]models.Deduction, int, error) {
	base := "FROM deductions WHERE 1=1"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", deductionColumns, base, size, offset)
	var deductions []models.Deduction
	if err := r.db.SelectContext(ctx, &deductions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list deductions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count deductions: %w", err)
	}

	return deductions, total, nil
}

// UpdateProgress replaces the stored approval progress with engine output.
func (r *DeductionRepository) UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error {
	const query = `UPDATE deductions
SET status = $2, current_level = $3, current_approver_id = $4, current_level_label = $5, decided_at = $6, updated_at = $7
WHERE id = $1`
	label := nullableLabel(progress.NextLevelLabel)
	if _, err := r.db.ExecContext(ctx, query, id, progress.Status, progress.NextLevelNumber, progress.NextApproverID, label, decidedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update deduction progress: %w", err)
	}
	return nil
}

// Reject marks the deduction rejected, clearing the approver but keeping the
// current level so the timeline can mark the rejecting step.
func (r *DeductionRepository) Reject(ctx context.Context, id, reason string, decidedAt time.Time) error {
	const query = `UPDATE deductions
SET status = $2, current_approver_id = NULL, rejection_reason = $3, decided_at = $4, updated_at = $4
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ApprovalStatusRejected, reason, decidedAt); err != nil {
		return fmt.Errorf("reject deduction: %w", err)
	}
	return nil
}
