package dto

// CreateLoanRequest describes payload for submitting an employee loan.
type CreateLoanRequest struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Installments int     `json:"installments" validate:"required,min=1,max=60"`
	Reason       *string `json:"reason,omitempty"`
}
