package dto

// CreateEmployeeRequest describes payload for registering an employee.
type CreateEmployeeRequest struct {
	NIK          *string `json:"nik,omitempty"`
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required,min=2"`
	Phone        *string `json:"phone,omitempty"`
	Position     *string `json:"position,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// UpdateEmployeeRequest describes payload for editing an employee.
type UpdateEmployeeRequest struct {
	NIK          *string `json:"nik,omitempty"`
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required,min=2"`
	Phone        *string `json:"phone,omitempty"`
	Position     *string `json:"position,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	Active       bool    `json:"active"`
}
