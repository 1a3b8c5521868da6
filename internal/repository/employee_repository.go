package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

const employeeColumns = `id, nik, email, full_name, phone, position, department_id, active, created_at, updated_at`

// EmployeeRepository manages persistence for employees.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees matching filters along with total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	base := "FROM employees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, *filter.DepartmentID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(COALESCE(nik, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"email":      "email",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeColumns, base, column, order, size, offset)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}

// FindByID fetches an employee by ID.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1`, employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ExistsByEmail reports whether an employee with the email exists, optionally
// excluding one ID (for updates).
func (r *EmployeeRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1)`
	args := []interface{}{email}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`

	var one int
	err := r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("employee exists by email: %w", err)
	}
	return true, nil
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now
	const query = `INSERT INTO employees (id, nik, email, full_name, phone, position, department_id, active, created_at, updated_at)
VALUES (:id, :nik, :email, :full_name, :phone, :position, :department_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update persists mutable employee fields.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees
SET nik = :nik, email = :email, full_name = :full_name, phone = :phone, position = :position,
    department_id = :department_id, active = :active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// Deactivate soft-disables an employee record.
func (r *EmployeeRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE employees SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	return nil
}
