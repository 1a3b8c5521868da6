package dto

// RoleHolderItem is one fixed organizational role mapping exposed via API.
type RoleHolderItem struct {
	Key          string `json:"key"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Fallback     bool   `json:"fallback"`
}

// UpdateRoleHolderRequest describes payload for assigning a role holder.
type UpdateRoleHolderRequest struct {
	Key        string `json:"key" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"required"`
}
