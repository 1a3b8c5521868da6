package models

import "time"

// Project represents a client or internal project with its management chain.
type Project struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	Name              string    `db:"name" json:"name"`
	DepartmentID      *string   `db:"department_id" json:"department_id,omitempty"`
	ManagerID         *string   `db:"manager_id" json:"manager_id,omitempty"`
	RegionalManagerID *string   `db:"regional_manager_id" json:"regional_manager_id,omitempty"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures filtering options for listing projects.
type ProjectFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
