package dto

// CreateDepartmentRequest describes payload for creating a department.
type CreateDepartmentRequest struct {
	Code      string  `json:"code" validate:"required,min=2,max=16"`
	Name      string  `json:"name" validate:"required,min=2"`
	ManagerID *string `json:"manager_id,omitempty"`
}

// UpdateDepartmentRequest describes payload for editing a department,
// including manager reassignment.
type UpdateDepartmentRequest struct {
	Code      string  `json:"code" validate:"required,min=2,max=16"`
	Name      string  `json:"name" validate:"required,min=2"`
	ManagerID *string `json:"manager_id,omitempty"`
	Active    bool    `json:"active"`
}
