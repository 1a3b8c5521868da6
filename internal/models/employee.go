package models

import "time"

// Employee represents a staff record in the organizational directory.
type Employee struct {
	ID           string    `db:"id" json:"id"`
	NIK          *string   `db:"nik" json:"nik,omitempty"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Position     *string   `db:"position" json:"position,omitempty"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering options for listing employees.
type EmployeeFilter struct {
	Search       string
	DepartmentID *string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
