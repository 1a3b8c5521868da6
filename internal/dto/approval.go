package dto

// RejectRequest carries the mandatory reason for a rejection decision.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// CreateChainRuleRequest describes payload for adding one approval level.
type CreateChainRuleRequest struct {
	RequestType        string  `json:"request_type" validate:"required"`
	DepartmentID       *string `json:"department_id,omitempty"`
	ProjectID          *string `json:"project_id,omitempty"`
	LevelNumber        int     `json:"level_number" validate:"required,min=1"`
	ApproverRule       string  `json:"approver_rule" validate:"required"`
	ApproverEmployeeID *string `json:"approver_employee_id,omitempty"`
	IsFinalLevel       bool    `json:"is_final_level"`
}

// UpdateChainRuleRequest describes payload for editing one approval level.
type UpdateChainRuleRequest struct {
	LevelNumber        int     `json:"level_number" validate:"required,min=1"`
	ApproverRule       string  `json:"approver_rule" validate:"required"`
	ApproverEmployeeID *string `json:"approver_employee_id,omitempty"`
	IsFinalLevel       bool    `json:"is_final_level"`
	Active             bool    `json:"active"`
}
