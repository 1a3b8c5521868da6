package models

import "time"

// Department represents an organizational unit. ManagerID is nullable; the
// approval engine falls back to the HR manager when it is unassigned.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	ManagerID *string   `db:"manager_id" json:"manager_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter captures filtering options for listing departments.
type DepartmentFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
