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

const loanColumns = `id, employee_id, department_id, amount, installments, reason, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at`

// LoanRepository manages persistence for loan requests.
type LoanRepository struct {
	db *sqlx.DB
}

// NewLoanRepository constructs a LoanRepository.
func NewLoanRepository(db *sqlx.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create inserts a new loan request with its initial approval progress.
func (r *LoanRepository) Create(ctx context.Context, loan *models.LoanRequest) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	loan.CreatedAt = now
	loan.UpdatedAt = now
	const query = `INSERT INTO loan_requests (id, employee_id, department_id, amount, installments, reason, status, current_level, current_approver_id, current_level_label, rejection_reason, decided_at, created_at, updated_at)
VALUES (:id, :employee_id, :department_id, :amount, :installments, :reason, :status, :current_level, :current_approver_id, :current_level_label, :rejection_reason, :decided_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, loan); err != nil {
		return fmt.Errorf("create loan request: %w", err)
	}
	return nil
}

// FindByID fetches a loan request by ID.
func (r *LoanRepository) FindByID(ctx context.Context, id string) (*models.LoanRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM loan_requests WHERE id = $1`, loanColumns)
	var loan models.LoanRequest
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

// List returns loan requests matching filters along with total count.
func (r *LoanRepository) List(ctx context.Context, filter models.LoanFilter) ([]models.LoanRequest, int, error) {
	base := "FROM loan_requests WHERE 1=1"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", loanColumns, base, size, offset)
	var loans []models.LoanRequest
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list loan requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count loan requests: %w", err)
	}

	return loans, total, nil
}

// UpdateProgress replaces the stored approval progress with engine output.
func (r *LoanRepository) UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error {
	const query = `UPDATE loan_requests
SET status = $2, current_level = $3, current_approver_id = $4, current_level_label = $5, decided_at = $6, updated_at = $7
WHERE id = $1`
	label := nullableLabel(progress.NextLevelLabel)
	if _, err := r.db.ExecContext(ctx, query, id, progress.Status, progress.NextLevelNumber, progress.NextApproverID, label, decidedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update loan progress: %w", err)
	}
	return nil
}

// Reject marks the request rejected, clearing the approver but keeping the
// current level so the timeline can mark the rejecting step.
func (r *LoanRepository) Reject(ctx context.Context, id, reason string, decidedAt time.Time) error {
	const query = `UPDATE loan_requests
SET status = $2, current_approver_id = NULL, rejection_reason = $3, decided_at = $4, updated_at = $4
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ApprovalStatusRejected, reason, decidedAt); err != nil {
		return fmt.Errorf("reject loan request: %w", err)
	}
	return nil
}
