package dto

// CreateProjectRequest describes payload for creating a project.
type CreateProjectRequest struct {
	Code              string  `json:"code" validate:"required,min=2,max=16"`
	Name              string  `json:"name" validate:"required,min=2"`
	DepartmentID      *string `json:"department_id,omitempty"`
	ManagerID         *string `json:"manager_id,omitempty"`
	RegionalManagerID *string `json:"regional_manager_id,omitempty"`
}

// UpdateProjectRequest describes payload for editing a project, including
// manager reassignment.
type UpdateProjectRequest struct {
	Code              string  `json:"code" validate:"required,min=2,max=16"`
	Name              string  `json:"name" validate:"required,min=2"`
	DepartmentID      *string `json:"department_id,omitempty"`
	ManagerID         *string `json:"manager_id,omitempty"`
	RegionalManagerID *string `json:"regional_manager_id,omitempty"`
	Active            bool    `json:"active"`
}
