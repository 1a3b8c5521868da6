package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type leaveRepoStub struct {
	items      map[string]*models.LeaveRequest
	lastFilter models.LeaveFilter
}

func newLeaveRepoStub() *leaveRepoStub {
	return &leaveRepoStub{items: map[string]*models.LeaveRequest{}}
}

func (s *leaveRepoStub) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = "leave-1"
	}
	stored := *leave
	s.items[leave.ID] = &stored
	return nil
}

func (s *leaveRepoStub) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	leave, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *leave
	return &found, nil
}

func (s *leaveRepoStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	s.lastFilter = filter
	out := make([]models.LeaveRequest, 0, len(s.items))
	for _, leave := range s.items {
		out = append(out, *leave)
	}
	return out, len(out), nil
}

func (s *leaveRepoStub) UpdateProgress(ctx context.Context, id string, progress models.ApprovalProgress, decidedAt *time.Time) error {
	leave, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	leave.Status = progress.Status
	leave.CurrentLevel = progress.NextLevelNumber
	leave.CurrentApproverID = progress.NextApproverID
	leave.CurrentLevelLabel = nil
	if progress.NextLevelLabel != "" {
		leave.CurrentLevelLabel = &progress.NextLevelLabel
	}
	leave.DecidedAt = decidedAt
	return nil
}

func (s *leaveRepoStub) Reject(ctx context.Context, id, reason string, decidedAt time.Time) error {
	leave, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	leave.Status = models.ApprovalStatusRejected
	leave.CurrentApproverID = nil
	leave.RejectionReason = &reason
	leave.DecidedAt = &decidedAt
	return nil
}

func testClaims(userID, employeeID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, EmployeeID: employeeID, Role: role}
}

func newTestLeaveService(repo *leaveRepoStub, chains *chainStub, employees *employeesStub, departments *departmentsStub, roles *rolesStub) *LeaveService {
	engine := newTestApprovalService(chains, employees, departments, nil, roles)
	if employees == nil {
		employees = &employeesStub{}
	}
	return NewLeaveService(repo, employees, engine, nil, nil, nil, nil)
}

func twoLevelLeaveChain() *chainStub {
	return &chainStub{
		global: []models.ApprovalLevelRule{
			rule(1, models.RuleDirectManager, false),
			rule(2, models.RuleHRManager, true),
		},
	}
}

func leaveDirectory() (*employeesStub, *departmentsStub) {
	employees := &employeesStub{items: map[string]models.Employee{
		"emp-1": {ID: "emp-1", FullName: "Asep Budi", DepartmentID: strPtr("dept-1"), Active: true},
	}}
	departments := &departmentsStub{items: map[string]models.Department{
		"dept-1": {ID: "dept-1", Name: "Engineering", ManagerID: strPtr("emp-mgr")},
	}}
	return employees, departments
}

func TestLeaveSubmitRoutesToDirectManager(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	leave, err := svc.Submit(context.Background(), testClaims("user-1", "emp-1", models.RoleEmployee), dto.CreateLeaveRequest{
		LeaveType: "ANNUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-09",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusNeedsApproval, leave.Status)
	assert.Equal(t, 3, leave.TotalDays)
	require.NotNil(t, leave.CurrentApproverID)
	assert.Equal(t, "emp-mgr", *leave.CurrentApproverID)
	require.NotNil(t, leave.CurrentLevel)
	assert.Equal(t, 1, *leave.CurrentLevel)
	require.NotNil(t, leave.CurrentLevelLabel)
	assert.Equal(t, "Direct Manager", *leave.CurrentLevelLabel)
	assert.Nil(t, leave.DecidedAt)
}

func TestLeaveSubmitEndBeforeStart(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	_, err := svc.Submit(context.Background(), testClaims("user-1", "emp-1", models.RoleEmployee), dto.CreateLeaveRequest{
		LeaveType: "ANNUAL",
		StartDate: "2026-09-09",
		EndDate:   "2026-09-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveSubmitWithoutEmployeeProfile(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), testClaims("user-1", "", models.RoleEmployee), dto.CreateLeaveRequest{
		LeaveType: "ANNUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-09",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLeaveSubmitPrivilegedBypass(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	employees.items["emp-hradmin"] = models.Employee{ID: "emp-hradmin", FullName: "Hana Admin", Active: true}
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	leave, err := svc.Submit(context.Background(), testClaims("user-9", "emp-hradmin", models.RoleHRAdmin), dto.CreateLeaveRequest{
		LeaveType: "SICK",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-07",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, leave.Status)
	assert.Nil(t, leave.CurrentApproverID)
	require.NotNil(t, leave.DecidedAt)
}

func seedPendingLeave(repo *leaveRepoStub, level int, approverID string) *models.LeaveRequest {
	leave := &models.LeaveRequest{
		ID:                "leave-1",
		EmployeeID:        "emp-1",
		DepartmentID:      strPtr("dept-1"),
		LeaveType:         models.LeaveTypeAnnual,
		Status:            models.ApprovalStatusNeedsApproval,
		CurrentLevel:      intPtr(level),
		CurrentApproverID: strPtr(approverID),
	}
	stored := *leave
	repo.items[leave.ID] = &stored
	return leave
}

func TestLeaveApproveAdvancesToNextLevel(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	roles := &rolesStub{holders: map[models.RoleKey]string{models.RoleKeyHRManager: "emp-hr"}}
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, roles)
	seedPendingLeave(repo, 1, "emp-mgr")

	leave, err := svc.Approve(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusNeedsApproval, leave.Status)
	require.NotNil(t, leave.CurrentLevel)
	assert.Equal(t, 2, *leave.CurrentLevel)
	require.NotNil(t, leave.CurrentApproverID)
	assert.Equal(t, "emp-hr", *leave.CurrentApproverID)
	assert.Nil(t, leave.DecidedAt)
}

func TestLeaveApproveFinalLevelApproves(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	roles := &rolesStub{holders: map[models.RoleKey]string{models.RoleKeyHRManager: "emp-hr"}}
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, roles)
	seedPendingLeave(repo, 2, "emp-hr")

	leave, err := svc.Approve(context.Background(), testClaims("user-3", "emp-hr", models.RoleManager), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, leave.Status)
	assert.Nil(t, leave.CurrentApproverID)
	require.NotNil(t, leave.DecidedAt)

	stored := repo.items["leave-1"]
	assert.Equal(t, models.ApprovalStatusApproved, stored.Status)
}

func TestLeaveApproveByWrongEmployee(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)
	seedPendingLeave(repo, 1, "emp-mgr")

	_, err := svc.Approve(context.Background(), testClaims("user-4", "emp-other", models.RoleManager), "leave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotCurrentApprover.Code, appErrors.FromError(err).Code)
}

func TestLeaveApproveAlreadyDecided(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)
	leave := seedPendingLeave(repo, 1, "emp-mgr")
	repo.items[leave.ID].Status = models.ApprovalStatusApproved

	_, err := svc.Approve(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), "leave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRequestFinalized.Code, appErrors.FromError(err).Code)
}

func TestLeaveRejectKeepsLevelForTimeline(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)
	seedPendingLeave(repo, 1, "emp-mgr")

	leave, err := svc.Reject(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), "leave-1", dto.RejectRequest{Reason: "overlaps release week"})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, leave.Status)
	assert.Nil(t, leave.CurrentApproverID)
	require.NotNil(t, leave.RejectionReason)
	assert.Equal(t, "overlaps release week", *leave.RejectionReason)
	require.NotNil(t, leave.DecidedAt)

	stored := repo.items["leave-1"]
	require.NotNil(t, stored.CurrentLevel)
	assert.Equal(t, 1, *stored.CurrentLevel)
}

func TestLeaveRejectWithoutReason(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)
	seedPendingLeave(repo, 1, "emp-mgr")

	_, err := svc.Reject(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), "leave-1", dto.RejectRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveGetHiddenFromUnrelatedEmployee(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)
	seedPendingLeave(repo, 1, "emp-mgr")

	_, err := svc.Get(context.Background(), testClaims("user-5", "emp-unrelated", models.RoleEmployee), "leave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), "leave-1")
	require.NoError(t, err)
}

func TestLeaveListScopedToOwnRequests(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	_, _, err := svc.List(context.Background(), testClaims("user-1", "emp-1", models.RoleEmployee), models.LeaveFilter{}, false)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.EmployeeID)
	assert.Equal(t, "emp-1", *repo.lastFilter.EmployeeID)
	assert.Nil(t, repo.lastFilter.ApproverID)
}

func TestLeaveListApproverInbox(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	_, _, err := svc.List(context.Background(), testClaims("user-2", "emp-mgr", models.RoleManager), models.LeaveFilter{}, true)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.ApproverID)
	assert.Equal(t, "emp-mgr", *repo.lastFilter.ApproverID)
	assert.Nil(t, repo.lastFilter.EmployeeID)
}

func TestLeaveListPrivilegedSeesAll(t *testing.T) {
	repo := newLeaveRepoStub()
	employees, departments := leaveDirectory()
	svc := newTestLeaveService(repo, twoLevelLeaveChain(), employees, departments, nil)

	_, _, err := svc.List(context.Background(), testClaims("user-9", "", models.RoleSuperAdmin), models.LeaveFilter{}, false)
	require.NoError(t, err)
	assert.Nil(t, repo.lastFilter.EmployeeID)
	assert.Nil(t, repo.lastFilter.ApproverID)
}
