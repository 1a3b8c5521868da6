package models

import "time"

// RequestType categorizes business requests routed through approval chains.
type RequestType string

const (
	RequestTypeLeave            RequestType = "LEAVE"
	RequestTypeLoan             RequestType = "LOAN"
	RequestTypeSalaryIncrease   RequestType = "SALARY_INCREASE"
	RequestTypeDeduction        RequestType = "DEDUCTION"
	RequestTypeProjectPayment   RequestType = "PROJECT_PAYMENT"
	RequestTypeProjectTransfer  RequestType = "PROJECT_TRANSFER"
	RequestTypeManualAttendance RequestType = "MANUAL_ATTENDANCE"
)

// Known reports whether the request type belongs to the supported set.
func (t RequestType) Known() bool {
	switch t {
	case RequestTypeLeave, RequestTypeLoan, RequestTypeSalaryIncrease,
		RequestTypeDeduction, RequestTypeProjectPayment,
		RequestTypeProjectTransfer, RequestTypeManualAttendance:
		return true
	}
	return false
}

// RoutingRule selects how the approver for one chain level is resolved.
// The set is closed; anything outside it is rejected, never defaulted.
type RoutingRule string

const (
	RuleDirectManager   RoutingRule = "DIRECT_MANAGER"
	RuleProjectManager  RoutingRule = "PROJECT_MANAGER"
	RuleRegionalManager RoutingRule = "REGIONAL_MANAGER"
	RuleHRManager       RoutingRule = "HR_MANAGER"
	RuleFinanceManager  RoutingRule = "FINANCE_MANAGER"
	RuleGeneralManager  RoutingRule = "GENERAL_MANAGER"
	RuleFixedEmployee   RoutingRule = "FIXED_EMPLOYEE"
)

// Known reports whether the rule belongs to the closed routing-rule set.
func (r RoutingRule) Known() bool {
	switch r {
	case RuleDirectManager, RuleProjectManager, RuleRegionalManager,
		RuleHRManager, RuleFinanceManager, RuleGeneralManager, RuleFixedEmployee:
		return true
	}
	return false
}

// ApprovalLevelRule is one configured level in an approval chain. A chain is
// the ordered set of active rules sharing (request_type, scope).
type ApprovalLevelRule struct {
	ID                 string      `db:"id" json:"id"`
	RequestType        RequestType `db:"request_type" json:"request_type"`
	DepartmentID       *string     `db:"department_id" json:"department_id,omitempty"`
	ProjectID          *string     `db:"project_id" json:"project_id,omitempty"`
	LevelNumber        int         `db:"level_number" json:"level_number"`
	ApproverRule       RoutingRule `db:"approver_rule" json:"approver_rule"`
	ApproverEmployeeID *string     `db:"approver_employee_id" json:"approver_employee_id,omitempty"`
	IsFinalLevel       bool        `db:"is_final_level" json:"is_final_level"`
	Active             bool        `db:"active" json:"active"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// ApprovalStatus is the terminal/non-terminal status carried on a request.
type ApprovalStatus string

const (
	ApprovalStatusNeedsApproval ApprovalStatus = "NEEDS_APPROVAL"
	ApprovalStatusApproved      ApprovalStatus = "APPROVED"
	ApprovalStatusRejected      ApprovalStatus = "REJECTED"
)

// Terminal reports whether no further routing occurs.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// ApprovalProgress is the engine's output: either the next pending level or a
// terminal status. It is owned and persisted by the calling domain record and
// replaced wholesale on every advancement.
type ApprovalProgress struct {
	NextApproverID  *string        `json:"next_approver_id,omitempty"`
	NextLevelNumber *int           `json:"next_level_number,omitempty"`
	NextLevelLabel  string         `json:"next_level_label,omitempty"`
	Status          ApprovalStatus `json:"status"`
}

// ApprovalContext identifies the originating request for chain selection and
// approver resolution. Approvers are re-resolved from it on every call, so
// organizational changes affect in-flight requests.
type ApprovalContext struct {
	RequestType  RequestType
	EmployeeID   string
	DepartmentID *string
	ProjectID    *string
}

// TimelineStepStatus labels one chain level in the reconstructed timeline.
type TimelineStepStatus string

const (
	StepCompleted TimelineStepStatus = "COMPLETED"
	StepPending   TimelineStepStatus = "PENDING"
	StepFuture    TimelineStepStatus = "FUTURE"
	StepRejected  TimelineStepStatus = "REJECTED"
	StepSkipped   TimelineStepStatus = "SKIPPED"
)

// ApprovalTimelineStep is one display row of the reconstructed history.
type ApprovalTimelineStep struct {
	LevelNumber  int                `json:"level_number"`
	LevelLabel   string             `json:"level_label"`
	ApproverID   string             `json:"approver_id"`
	ApproverName string             `json:"approver_name"`
	Status       TimelineStepStatus `json:"status"`
}

// ApprovalChainFilter captures filtering options for listing chain rules.
type ApprovalChainFilter struct {
	RequestType  *RequestType
	DepartmentID *string
	ProjectID    *string
	Active       *bool
	Page         int
	PageSize     int
}
