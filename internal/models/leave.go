package models

import "time"

// LeaveType enumerates supported leave categories.
type LeaveType string

const (
	LeaveTypeAnnual    LeaveType = "ANNUAL"
	LeaveTypeSick      LeaveType = "SICK"
	LeaveTypeUnpaid    LeaveType = "UNPAID"
	LeaveTypeMaternity LeaveType = "MATERNITY"
)

// LeaveRequest is a leave submission owning its approval progress. The
// current level/approver columns hold the engine output verbatim.
type LeaveRequest struct {
	ID                string         `db:"id" json:"id"`
	EmployeeID        string         `db:"employee_id" json:"employee_id"`
	DepartmentID      *string        `db:"department_id" json:"department_id,omitempty"`
	LeaveType         LeaveType      `db:"leave_type" json:"leave_type"`
	StartDate         time.Time      `db:"start_date" json:"start_date"`
	EndDate           time.Time      `db:"end_date" json:"end_date"`
	TotalDays         int            `db:"total_days" json:"total_days"`
	Reason            *string        `db:"reason" json:"reason,omitempty"`
	Status            ApprovalStatus `db:"status" json:"status"`
	CurrentLevel      *int           `db:"current_level" json:"current_level,omitempty"`
	CurrentApproverID *string        `db:"current_approver_id" json:"current_approver_id,omitempty"`
	CurrentLevelLabel *string        `db:"current_level_label" json:"current_level_label,omitempty"`
	RejectionReason   *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DecidedAt         *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// LeaveFilter captures filtering options for listing leave requests.
type LeaveFilter struct {
	EmployeeID *string
	ApproverID *string
	Status     *ApprovalStatus
	Page       int
	PageSize   int
}
