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

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Deactivate(ctx context.Context, id string) error
}

type employeeDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// EmployeeService manages the employee directory the approval engine
// resolves against.
type EmployeeService struct {
	repo        employeeRepository
	departments employeeDepartmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(repo employeeRepository, departments employeeDepartmentReader, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns employees matching the filter.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, total, nil
}

// Get returns a single employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Create registers a new employee.
func (s *EmployeeService) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	if err := s.verifyDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		NIK:          req.NIK,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Position:     req.Position,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return employee, nil
}

// Update edits an employee, including department moves which immediately
// affect routing of that employee's in-flight requests.
func (s *EmployeeService) Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	if err := s.verifyDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	employee.NIK = req.NIK
	employee.Email = req.Email
	employee.FullName = req.FullName
	employee.Phone = req.Phone
	employee.Position = req.Position
	employee.DepartmentID = req.DepartmentID
	employee.Active = req.Active

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return employee, nil
}

// Deactivate soft-disables an employee record.
func (s *EmployeeService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate employee")
	}
	return nil
}

func (s *EmployeeService) verifyDepartment(ctx context.Context, departmentID *string) error {
	if departmentID == nil || *departmentID == "" {
		return nil
	}
	if _, err := s.departments.FindByID(ctx, *departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify department")
	}
	return nil
}
