package dto

// CreateLeaveRequest describes payload for submitting a leave request.
type CreateLeaveRequest struct {
	LeaveType string  `json:"leave_type" validate:"required,oneof=ANNUAL SICK UNPAID MATERNITY"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    *string `json:"reason,omitempty"`
}
