package models

import "time"

// Deduction is a payroll deduction submission owning its approval progress.
// The engine routes it; payroll math happens elsewhere.
type Deduction struct {
	ID                string         `db:"id" json:"id"`
	EmployeeID        string         `db:"employee_id" json:"employee_id"`
	DepartmentID      *string        `db:"department_id" json:"department_id,omitempty"`
	Amount            float64        `db:"amount" json:"amount"`
	Reason            string         `db:"reason" json:"reason"`
	EffectiveMonth    string         `db:"effective_month" json:"effective_month"`
	Status            ApprovalStatus `db:"status" json:"status"`
	CurrentLevel      *int           `db:"current_level" json:"current_level,omitempty"`
	CurrentApproverID *string        `db:"current_approver_id" json:"current_approver_id,omitempty"`
	CurrentLevelLabel *string        `db:"current_level_label" json:"current_level_label,omitempty"`
	RejectionReason   *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DecidedAt         *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// DeductionFilter captures filtering options for listing deductions.
type DeductionFilter struct {
	EmployeeID *string
	ApproverID *string
	Status     *ApprovalStatus
	Page       int
	PageSize   int
}
