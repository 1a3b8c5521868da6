package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type chainStub struct {
	department []models.ApprovalLevelRule
	project    []models.ApprovalLevelRule
	global     []models.ApprovalLevelRule
	err        error
}

func (s *chainStub) FindByDepartment(ctx context.Context, requestType models.RequestType, departmentID string) ([]models.ApprovalLevelRule, error) {
	return s.department, s.err
}

func (s *chainStub) FindByProject(ctx context.Context, requestType models.RequestType, projectID string) ([]models.ApprovalLevelRule, error) {
	return s.project, s.err
}

func (s *chainStub) FindGlobal(ctx context.Context, requestType models.RequestType) ([]models.ApprovalLevelRule, error) {
	return s.global, s.err
}

type employeesStub struct {
	items map[string]models.Employee
}

func (s *employeesStub) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if employee, ok := s.items[id]; ok {
		return &employee, nil
	}
	return nil, sql.ErrNoRows
}

type departmentsStub struct {
	items map[string]models.Department
}

func (s *departmentsStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if department, ok := s.items[id]; ok {
		return &department, nil
	}
	return nil, sql.ErrNoRows
}

type projectsStub struct {
	items map[string]models.Project
}

func (s *projectsStub) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if project, ok := s.items[id]; ok {
		return &project, nil
	}
	return nil, sql.ErrNoRows
}

type rolesStub struct {
	holders map[models.RoleKey]string
	err     error
}

func (s *rolesStub) HolderID(ctx context.Context, key models.RoleKey) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.holders[key], nil
}

func strPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func rule(level int, routing models.RoutingRule, final bool) models.ApprovalLevelRule {
	return models.ApprovalLevelRule{
		ID:           "rule-" + string(routing),
		RequestType:  models.RequestTypeLeave,
		LevelNumber:  level,
		ApproverRule: routing,
		IsFinalLevel: final,
		Active:       true,
	}
}

func newTestApprovalService(chains *chainStub, employees *employeesStub, departments *departmentsStub, projects *projectsStub, roles *rolesStub) *ApprovalService {
	if employees == nil {
		employees = &employeesStub{}
	}
	if departments == nil {
		departments = &departmentsStub{}
	}
	if projects == nil {
		projects = &projectsStub{}
	}
	if roles == nil {
		roles = &rolesStub{holders: map[models.RoleKey]string{models.RoleKeyHRManager: "emp-hr"}}
	}
	return NewApprovalService(chains, employees, departments, projects, roles, nil, nil, ApprovalServiceConfig{})
}

func TestResolveChainDepartmentTakesPrecedence(t *testing.T) {
	chains := &chainStub{
		department: []models.ApprovalLevelRule{rule(1, models.RuleDirectManager, true)},
		global:     []models.ApprovalLevelRule{rule(1, models.RuleHRManager, true)},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	resolved, err := svc.ResolveChain(context.Background(), models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   "emp-1",
		DepartmentID: strPtr("dept-1"),
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, models.RuleDirectManager, resolved[0].ApproverRule)
}

func TestResolveChainFallsThroughToGlobal(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{rule(1, models.RuleHRManager, true)},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	resolved, err := svc.ResolveChain(context.Background(), models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   "emp-1",
		DepartmentID: strPtr("dept-1"),
		ProjectID:    strPtr("proj-1"),
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, models.RuleHRManager, resolved[0].ApproverRule)
}

func TestResolveChainEmptyEverywhere(t *testing.T) {
	svc := newTestApprovalService(&chainStub{}, nil, nil, nil, nil)

	_, err := svc.ResolveChain(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLeave,
		EmployeeID:  "emp-1",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestInitializeResolvesDirectManager(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleDirectManager, false),
			rule(2, models.RuleHRManager, true),
		},
	}
	departments := &departmentsStub{items: map[string]models.Department{
		"dept-1": {ID: "dept-1", Name: "Engineering", ManagerID: strPtr("emp-mgr")},
	}}
	svc := newTestApprovalService(chains, nil, departments, nil, nil)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   "emp-1",
		DepartmentID: strPtr("dept-1"),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusNeedsApproval, progress.Status)
	require.NotNil(t, progress.NextApproverID)
	assert.Equal(t, "emp-mgr", *progress.NextApproverID)
	require.NotNil(t, progress.NextLevelNumber)
	assert.Equal(t, 1, *progress.NextLevelNumber)
	assert.Equal(t, "Direct Manager", progress.NextLevelLabel)
}

func TestDirectManagerFollowsContextDepartment(t *testing.T) {
	// The employee row points at dept-b; routing must honor the department
	// the request itself was raised under.
	chains := &chainStub{
		global: []models.ApprovalLevelRule{rule(1, models.RuleDirectManager, true)},
	}
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-1": {ID: "emp-1", DepartmentID: strPtr("dept-b"), Active: true},
	}}
	departments := &departmentsStub{items: map[string]models.Department{
		"dept-a": {ID: "dept-a", ManagerID: strPtr("emp-mgr-a")},
		"dept-b": {ID: "dept-b", ManagerID: strPtr("emp-mgr-b")},
	}}
	svc := newTestApprovalService(chains, employees, departments, nil, nil)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   "emp-1",
		DepartmentID: strPtr("dept-a"),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, progress.NextApproverID)
	assert.Equal(t, "emp-mgr-a", *progress.NextApproverID)
}

func TestDirectManagerWithoutDepartmentFallsBackToHR(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{rule(1, models.RuleDirectManager, true)},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLeave,
		EmployeeID:  "emp-1",
	}, false)
	require.NoError(t, err)
	require.NotNil(t, progress.NextApproverID)
	assert.Equal(t, "emp-hr", *progress.NextApproverID)
}

func TestInitializeBypassApprovesImmediately(t *testing.T) {
	svc := newTestApprovalService(&chainStub{}, nil, nil, nil, nil)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLeave,
		EmployeeID:  "emp-1",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, progress.Status)
	assert.Nil(t, progress.NextApproverID)
	assert.Nil(t, progress.NextLevelNumber)
}

func TestInitializeMissingManagerFallsBackToHR(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{rule(1, models.RuleDirectManager, true)},
	}
	departments := &departmentsStub{items: map[string]models.Department{
		"dept-1": {ID: "dept-1", Name: "Engineering"},
	}}
	roles := &rolesStub{holders: map[models.RoleKey]string{models.RoleKeyHRManager: "emp-hr"}}
	svc := newTestApprovalService(chains, nil, departments, nil, roles)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType:  models.RequestTypeLeave,
		EmployeeID:   "emp-1",
		DepartmentID: strPtr("dept-1"),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, progress.NextApproverID)
	assert.Equal(t, "emp-hr", *progress.NextApproverID)
}

func TestInitializeProjectManagerRule(t *testing.T) {
	chains := &chainStub{
		project: []models.ApprovalLevelRule{
			rule(1, models.RuleProjectManager, false),
			rule(2, models.RuleRegionalManager, true),
		},
	}
	projects := &projectsStub{items: map[string]models.Project{
		"proj-1": {ID: "proj-1", ManagerID: strPtr("emp-pm"), RegionalManagerID: strPtr("emp-rm")},
	}}
	svc := newTestApprovalService(chains, nil, nil, projects, nil)

	ac := models.ApprovalContext{
		RequestType: models.RequestTypeProjectPayment,
		EmployeeID:  "emp-1",
		ProjectID:   strPtr("proj-1"),
	}

	progress, err := svc.Initialize(context.Background(), ac, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-pm", *progress.NextApproverID)

	progress, err = svc.Advance(context.Background(), ac, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-rm", *progress.NextApproverID)
	assert.Equal(t, "Regional Manager", progress.NextLevelLabel)
}

func TestInitializeUnknownRoutingRule(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{rule(1, models.RoutingRule("BRANCH_SUPERVISOR"), true)},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	_, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLeave,
		EmployeeID:  "emp-1",
	}, false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnknownRoutingRule.Code, appErr.Code)
}

func TestInitializeFixedEmployeeRule(t *testing.T) {
	fixed := rule(1, models.RuleFixedEmployee, true)
	fixed.ApproverEmployeeID = strPtr("emp-fixed")
	chains := &chainStub{global: []models.ApprovalLevelRule{fixed}}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	progress, err := svc.Initialize(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLeave,
		EmployeeID:  "emp-1",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-fixed", *progress.NextApproverID)
	assert.Equal(t, "Designated Approver", progress.NextLevelLabel)
}

func TestAdvanceToNextLevel(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleFinanceManager, false),
			rule(3, models.RuleGeneralManager, true),
		},
	}
	roles := &rolesStub{holders: map[models.RoleKey]string{
		models.RoleKeyHRManager:      "emp-hr",
		models.RoleKeyFinanceManager: "emp-fin",
		models.RoleKeyGeneralManager: "emp-gm",
	}}
	svc := newTestApprovalService(chains, nil, nil, nil, roles)
	ac := models.ApprovalContext{RequestType: models.RequestTypeLoan, EmployeeID: "emp-1"}

	progress, err := svc.Advance(context.Background(), ac, 1, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusNeedsApproval, progress.Status)
	assert.Equal(t, "emp-fin", *progress.NextApproverID)
	assert.Equal(t, 2, *progress.NextLevelNumber)
}

func TestAdvancePastFinalLevelApproves(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleGeneralManager, true),
		},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	progress, err := svc.Advance(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, progress.Status)
	assert.Nil(t, progress.NextApproverID)
}

func TestAdvanceExhaustedChainApproves(t *testing.T) {
	// Last rule is not flagged final; running off the end still terminates.
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleGeneralManager, false),
		},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	progress, err := svc.Advance(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, progress.Status)
}

func TestAdvanceLevelRemovedFromChain(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(3, models.RuleGeneralManager, true),
		},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	_, err := svc.Advance(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, 2, false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestAdvanceBypassApproves(t *testing.T) {
	svc := newTestApprovalService(&chainStub{}, nil, nil, nil, nil)

	progress, err := svc.Advance(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, 1, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, progress.Status)
}

func TestCanApprove(t *testing.T) {
	svc := newTestApprovalService(&chainStub{}, nil, nil, nil, nil)

	assert.True(t, svc.CanApprove(strPtr("emp-mgr"), "emp-mgr", false))
	assert.False(t, svc.CanApprove(strPtr("emp-mgr"), "emp-other", false))
	assert.False(t, svc.CanApprove(nil, "emp-mgr", false))
	assert.False(t, svc.CanApprove(strPtr("emp-mgr"), "", false))
	assert.True(t, svc.CanApprove(nil, "emp-any", true))
}

func TestTimelinePendingRequest(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleFinanceManager, false),
			rule(3, models.RuleGeneralManager, true),
		},
	}
	roles := &rolesStub{holders: map[models.RoleKey]string{
		models.RoleKeyHRManager:      "emp-hr",
		models.RoleKeyFinanceManager: "emp-fin",
		models.RoleKeyGeneralManager: "emp-gm",
	}}
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-hr":  {ID: "emp-hr", FullName: "Hesti Rahayu"},
		"emp-fin": {ID: "emp-fin", FullName: "Fajar Nugroho"},
	}}
	svc := newTestApprovalService(chains, employees, nil, nil, roles)

	steps, err := svc.Timeline(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, models.ApprovalStatusNeedsApproval, intPtr(2))
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, models.StepCompleted, steps[0].Status)
	assert.Equal(t, models.StepPending, steps[1].Status)
	assert.Equal(t, models.StepFuture, steps[2].Status)
	assert.Equal(t, "Hesti Rahayu", steps[0].ApproverName)
	assert.Equal(t, "Fajar Nugroho", steps[1].ApproverName)
	assert.Equal(t, "Unknown Employee", steps[2].ApproverName)
}

func TestTimelineRejectedRequest(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleFinanceManager, false),
			rule(3, models.RuleGeneralManager, true),
		},
	}
	roles := &rolesStub{holders: map[models.RoleKey]string{
		models.RoleKeyHRManager:      "emp-hr",
		models.RoleKeyFinanceManager: "emp-fin",
		models.RoleKeyGeneralManager: "emp-gm",
	}}
	svc := newTestApprovalService(chains, nil, nil, nil, roles)

	steps, err := svc.Timeline(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, models.ApprovalStatusRejected, intPtr(2))
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, models.StepCompleted, steps[0].Status)
	assert.Equal(t, models.StepRejected, steps[1].Status)
	assert.Equal(t, models.StepSkipped, steps[2].Status)
}

func TestTimelineRejectedWithoutLevel(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleGeneralManager, true),
		},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	steps, err := svc.Timeline(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, models.ApprovalStatusRejected, nil)
	require.NoError(t, err)
	for _, step := range steps {
		assert.Equal(t, models.StepRejected, step.Status)
	}
}

func TestTimelineApprovedRequest(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleHRManager, false),
			rule(2, models.RuleGeneralManager, true),
		},
	}
	svc := newTestApprovalService(chains, nil, nil, nil, nil)

	steps, err := svc.Timeline(context.Background(), models.ApprovalContext{
		RequestType: models.RequestTypeLoan,
		EmployeeID:  "emp-1",
	}, models.ApprovalStatusApproved, nil)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	for _, step := range steps {
		assert.Equal(t, models.StepCompleted, step.Status)
	}
}

func TestLoanChainEndToEnd(t *testing.T) {
	chains := &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleDirectManager, false),
			rule(2, models.RuleFinanceManager, false),
			rule(3, models.RuleGeneralManager, true),
		},
	}
	departments := &departmentsStub{items: map[string]models.Department{
		"dept-1": {ID: "dept-1", ManagerID: strPtr("emp-mgr")},
	}}
	roles := &rolesStub{holders: map[models.RoleKey]string{
		models.RoleKeyHRManager:      "emp-hr",
		models.RoleKeyFinanceManager: "emp-fin",
		models.RoleKeyGeneralManager: "emp-gm",
	}}
	svc := newTestApprovalService(chains, nil, departments, nil, roles)
	ac := models.ApprovalContext{RequestType: models.RequestTypeLoan, EmployeeID: "emp-1", DepartmentID: strPtr("dept-1")}

	progress, err := svc.Initialize(context.Background(), ac, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-mgr", *progress.NextApproverID)

	require.True(t, svc.CanApprove(progress.NextApproverID, "emp-mgr", false))
	progress, err = svc.Advance(context.Background(), ac, *progress.NextLevelNumber, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-fin", *progress.NextApproverID)

	require.False(t, svc.CanApprove(progress.NextApproverID, "emp-mgr", false))
	progress, err = svc.Advance(context.Background(), ac, *progress.NextLevelNumber, false)
	require.NoError(t, err)
	assert.Equal(t, "emp-gm", *progress.NextApproverID)

	progress, err = svc.Advance(context.Background(), ac, *progress.NextLevelNumber, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, progress.Status)
}
