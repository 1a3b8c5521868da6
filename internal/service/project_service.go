package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
}

// ProjectService manages projects. Project and regional manager assignments
// feed approver resolution directly.
type ProjectService struct {
	repo        projectRepository
	employees   employeeDirectory
	departments employeeDepartmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(repo projectRepository, employees employeeDirectory, departments employeeDepartmentReader, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, employees: employees, departments: departments, validator: validate, logger: logger}
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, total, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// Create registers a new project.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if err := s.verifyReferences(ctx, req.DepartmentID, req.ManagerID, req.RegionalManagerID); err != nil {
		return nil, err
	}

	project := &models.Project{
		Code:              req.Code,
		Name:              req.Name,
		DepartmentID:      req.DepartmentID,
		ManagerID:         req.ManagerID,
		RegionalManagerID: req.RegionalManagerID,
		Active:            true,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Update edits a project, including manager reassignment.
func (s *ProjectService) Update(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verifyReferences(ctx, req.DepartmentID, req.ManagerID, req.RegionalManagerID); err != nil {
		return nil, err
	}

	project.Code = req.Code
	project.Name = req.Name
	project.DepartmentID = req.DepartmentID
	project.ManagerID = req.ManagerID
	project.RegionalManagerID = req.RegionalManagerID
	project.Active = req.Active

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

func (s *ProjectService) verifyReferences(ctx context.Context, departmentID *string, managerIDs ...*string) error {
	if departmentID != nil && *departmentID != "" {
		if _, err := s.departments.FindByID(ctx, *departmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify department")
		}
	}
	for _, managerID := range managerIDs {
		if managerID == nil || *managerID == "" {
			continue
		}
		employee, err := s.employees.FindByID(ctx, *managerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "manager employee not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify manager")
		}
		if !employee.Active {
			return appErrors.Clone(appErrors.ErrValidation, "manager employee is inactive")
		}
	}
	return nil
}
