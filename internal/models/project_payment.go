package models

import "time"

// ProjectPayment is a project disbursement request. Its approval context is
// project-scoped so project/regional manager rules resolve.
type ProjectPayment struct {
	ID                string         `db:"id" json:"id"`
	ProjectID         string         `db:"project_id" json:"project_id"`
	RequestedBy       string         `db:"requested_by" json:"requested_by"`
	Amount            float64        `db:"amount" json:"amount"`
	Description       *string        `db:"description" json:"description,omitempty"`
	Status            ApprovalStatus `db:"status" json:"status"`
	CurrentLevel      *int           `db:"current_level" json:"current_level,omitempty"`
	CurrentApproverID *string        `db:"current_approver_id" json:"current_approver_id,omitempty"`
	CurrentLevelLabel *string        `db:"current_level_label" json:"current_level_label,omitempty"`
	RejectionReason   *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DecidedAt         *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// ProjectPaymentFilter captures filtering options for listing payments.
type ProjectPaymentFilter struct {
	ProjectID  *string
	ApproverID *string
	Status     *ApprovalStatus
	Page       int
	PageSize   int
}
