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

const projectColumns = `id, code, name, department_id, manager_id, regional_manager_id, active, created_at, updated_at`

// ProjectRepository manages persistence for projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects matching filters along with total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := "FROM projects WHERE 1=1"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", projectColumns, base, size, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	return projects, total, nil
}

// FindByID fetches a project by ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	const query = `INSERT INTO projects (id, code, name, department_id, manager_id, regional_manager_id, active, created_at, updated_at)
VALUES (:id, :code, :name, :department_id, :manager_id, :regional_manager_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update persists mutable project fields, including manager reassignment.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects
SET code = :code, name = :name, department_id = :department_id, manager_id = :manager_id,
    regional_manager_id = :regional_manager_id, active = :active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}
