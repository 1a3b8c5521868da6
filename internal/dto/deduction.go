package dto

// CreateDeductionRequest describes payload for submitting a payroll deduction.
// HR submits these on behalf of an employee.
type CreateDeductionRequest struct {
	EmployeeID     string  `json:"employee_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Reason         string  `json:"reason" validate:"required,min=3"`
	EffectiveMonth string  `json:"effective_month" validate:"required,datetime=2006-01"`
}
