package dto

// CreateProjectPaymentRequest describes payload for a project disbursement.
type CreateProjectPaymentRequest struct {
	ProjectID   string  `json:"project_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description *string `json:"description,omitempty"`
}
