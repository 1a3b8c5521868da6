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

type departmentRepository interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
}

// DepartmentService manages departments. Manager reassignment takes effect
// on the next approver resolution; no stored request is touched.
type DepartmentService struct {
	repo      departmentRepository
	employees employeeDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, employees employeeDirectory, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, employees: employees, validator: validate, logger: logger}
}

// List returns departments matching the filter.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	departments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, total, nil
}

// Get returns a single department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create registers a new department.
func (s *DepartmentService) Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	if err := s.verifyManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}

	department := &models.Department{
		Code:      req.Code,
		Name:      req.Name,
		ManagerID: req.ManagerID,
		Active:    true,
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// Update edits a department, including manager reassignment.
func (s *DepartmentService) Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verifyManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}

	department.Code = req.Code
	department.Name = req.Name
	department.ManagerID = req.ManagerID
	department.Active = req.Active

	if err := s.repo.Update(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}

func (s *DepartmentService) verifyManager(ctx context.Context, managerID *string) error {
	if managerID == nil || *managerID == "" {
		return nil
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
	return nil
}
