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

const departmentColumns = `id, code, name, manager_id, active, created_at, updated_at`

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments matching filters along with total count.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	base := "FROM departments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", departmentColumns, base, size, offset)
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	return departments, total, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	query := fmt.Sprintf(`SELECT %s FROM departments WHERE id = $1`, departmentColumns)
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, code, name, manager_id, active, created_at, updated_at)
VALUES (:id, :code, :name, :manager_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update persists mutable department fields, including manager reassignment.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments
SET code = :code, name = :name, manager_id = :manager_id, active = :active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}
