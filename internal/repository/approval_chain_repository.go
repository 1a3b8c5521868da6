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

const approvalRuleColumns = `id, request_type, department_id, project_id, level_number, approver_rule, approver_employee_id, is_final_level, active, created_at, updated_at`

// ApprovalChainRepository persists approval level rules.
type ApprovalChainRepository struct {
	db *sqlx.DB
}

// NewApprovalChainRepository constructs the repository.
func NewApprovalChainRepository(db *sqlx.DB) *ApprovalChainRepository {
	return &ApprovalChainRepository{db: db}
}

// FindByDepartment returns the active department-scoped chain ordered by level.
func (r *ApprovalChainRepository) FindByDepartment(ctx context.Context, requestType models.RequestType, departmentID string) ([]models.ApprovalLevelRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_level_rules
WHERE request_type = $1 AND department_id = $2 AND active = TRUE
ORDER BY level_number ASC`, approvalRuleColumns)
	var rules []models.ApprovalLevelRule
	if err := r.db.SelectContext(ctx, &rules, query, requestType, departmentID); err != nil {
		return nil, fmt.Errorf("find department chain: %w", err)
	}
	return rules, nil
}

// FindByProject returns the active project-scoped chain ordered by level.
func (r *ApprovalChainRepository) FindByProject(ctx context.Context, requestType models.RequestType, projectID string) ([]models.ApprovalLevelRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_level_rules
WHERE request_type = $1 AND project_id = $2 AND active = TRUE
ORDER BY level_number ASC`, approvalRuleColumns)
	var rules []models.ApprovalLevelRule
	if err := r.db.SelectContext(ctx, &rules, query, requestType, projectID); err != nil {
		return nil, fmt.Errorf("find project chain: %w", err)
	}
	return rules, nil
}

// FindGlobal returns the active unscoped chain ordered by level.
func (r *ApprovalChainRepository) FindGlobal(ctx context.Context, requestType models.RequestType) ([]models.ApprovalLevelRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_level_rules
WHERE request_type = $1 AND department_id IS NULL AND project_id IS NULL AND active = TRUE
ORDER BY level_number ASC`, approvalRuleColumns)
	var rules []models.ApprovalLevelRule
	if err := r.db.SelectContext(ctx, &rules, query, requestType); err != nil {
		return nil, fmt.Errorf("find global chain: %w", err)
	}
	return rules, nil
}

// List returns chain rules matching filters along with total count.
func (r *ApprovalChainRepository) List(ctx context.Context, filter models.ApprovalChainFilter) ([]models.ApprovalLevelRule, int, error) {
	base := "FROM approval_level_rules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RequestType != nil {
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)+1))
		args = append(args, *filter.RequestType)
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, *filter.DepartmentID)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, *filter.ProjectID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY request_type ASC, level_number ASC LIMIT %d OFFSET %d", approvalRuleColumns, base, size, offset)
	var rules []models.ApprovalLevelRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list approval rules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count approval rules: %w", err)
	}

	return rules, total, nil
}

// FindByID fetches a single rule.
func (r *ApprovalChainRepository) FindByID(ctx context.Context, id string) (*models.ApprovalLevelRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_level_rules WHERE id = $1`, approvalRuleColumns)
	var rule models.ApprovalLevelRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a new chain rule.
func (r *ApprovalChainRepository) Create(ctx context.Context, rule *models.ApprovalLevelRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	const query = `INSERT INTO approval_level_rules (id, request_type, department_id, project_id, level_number, approver_rule, approver_employee_id, is_final_level, active, created_at, updated_at)
VALUES (:id, :request_type, :department_id, :project_id, :level_number, :approver_rule, :approver_employee_id, :is_final_level, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create approval rule: %w", err)
	}
	return nil
}

// Update persists mutable rule fields.
func (r *ApprovalChainRepository) Update(ctx context.Context, rule *models.ApprovalLevelRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE approval_level_rules
SET level_number = :level_number, approver_rule = :approver_rule, approver_employee_id = :approver_employee_id,
    is_final_level = :is_final_level, active = :active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update approval rule: %w", err)
	}
	return nil
}

// Deactivate removes a rule from its chain without deleting history.
func (r *ApprovalChainRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE approval_level_rules SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate approval rule: %w", err)
	}
	return nil
}
