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

const projectPaymentColumns = `id, project_id, requested_by, amount, description, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at`

// ProjectPaymentRepository manages persistence for project payment requests.
type ProjectPaymentRepository struct {
	db *sqlx.DB
}

// NewProjectPaymentRepository constructs a ProjectPaymentRepository.
func NewProjectPaymentRepository(db *sqlx.DB) *ProjectPaymentRepository {
	return &ProjectPaymentRepository{db: db}
}

// Create inserts a new payment request with its initial approval progress.
func (r *ProjectPaymentRepository) Create(ctx context.Context, payment *models.ProjectPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	const query = `INSERT INTO project_payments (id, project_id, requested_by, amount, description, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at)
VALUES (:id, :project_id, :requested_by, :amount, :description, :status, :current_level, :current_approver_id, :current_level_label, :rejection_reason, :decided_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create project payment: %w", err)
	}
	return nil
}

// FindByID fetches a payment request by ID.
func (r *ProjectPaymentRepository) FindByID(ctx context.Context, id string) (*models.ProjectPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM project_payments WHERE id = $1`, projectPaymentColumns)
	var payment models.ProjectPayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns payment requests matching filters along with total count.
func (r *ProjectPaymentRepository) List(ctx context.Context, filter models.ProjectPaymentFilter) ([]models.ProjectPayment, int, error) {
	base := "FROM project_payments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, *filter.ProjectID)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", projectPaymentColumns, base, size, offset)
	var payments []models.ProjectPayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list project payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count project payments: %w", err)
	}

	return payments, total, nil
}

// UpdateProgress replaces the stored approval progress with engine output.
func (r *ProjectPaymentRepository) UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error {
	const query = `UPDATE project_payments
SET status = $2, current_level = $3, current_approver_id = $4, current_level_label = $5, decided_at = $6, updated_at = $7
WHERE id = $1`
	label := nullableLabel(progress.NextLevelLabel)
	if _, err := r.db.ExecContext(ctx, query, id, progress.Status, progress.NextLevelNumber, progress.NextApproverID, label, decidedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update project payment progress: %w", err)
	}
	return nil
}

// Reject marks the payment rejected, clearing the approver but keeping the
// current level so the timeline can mark the rejecting step.
func (r *ProjectPaymentRepository) Reject(ctx context.Context, id, reason string, decidedAt time.Time) error {
	const query = `UPDATE project_payments
SET status = $2, current_approver_id = NULL, rejection_reason = $3, decided_at = $4, updated_at = $4
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ApprovalStatusRejected, reason, decidedAt); err != nil {
		return fmt.Errorf("reject project payment: %w", err)
	}
	return nil
}
