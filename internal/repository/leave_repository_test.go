package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

func TestLeaveRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	mock.ExpectExec("INSERT INTO leave_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	leave := &models.LeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  "ANNUAL",
		StartDate:  time.Now(),
		EndDate:    time.Now().AddDate(0, 0, 2),
		TotalDays:  3,
		Status:     models.ApprovalStatusNeedsApproval,
	}
	require.NoError(t, repo.Create(context.Background(), leave))
	assert.NotEmpty(t, leave.ID)
}

func TestLeaveRepositoryUpdateProgress(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	approver := "emp-mgr"
	level := 2
	progress := models.ApprovalProgress{
		NextApproverID:  &approver,
		NextLevelNumber: &level,
		NextLevelLabel:  "HR Manager",
		Status:          models.ApprovalStatusNeedsApproval,
	}
	mock.ExpectExec("UPDATE leave_requests").
		WithArgs("leave-1", models.ApprovalStatusNeedsApproval, &level, &approver, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProgress(context.Background(), "leave-1", progress, nil))
}

func TestLeaveRepositoryReject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	decidedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE leave_requests").
		WithArgs("leave-1", models.ApprovalStatusRejected, "insufficient balance", decidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reject(context.Background(), "leave-1", "insufficient balance", decidedAt))
}

func TestLeaveRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	employeeID := "emp-1"
	rows := sqlmock.NewRows([]string{"id", "employee_id", "department_id", "leave_type", "start_date", "end_date", "total_days", "reason", "status", "current_level", "current_approver_id", "current_level_label", "rejection_reason", "decided_at", "created_at", "updated_at"}).
		AddRow("leave-1", "emp-1", nil, "ANNUAL", time.Now(), time.Now(), 1, nil, "NEEDS_APPROVAL", 1, "emp-mgr", "Direct Manager", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM leave_requests").
		WithArgs(employeeID).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(employeeID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	leaves, total, err := repo.List(context.Background(), models.LeaveFilter{EmployeeID: &employeeID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, leaves, 1)
	assert.Equal(t, models.ApprovalStatusNeedsApproval, leaves[0].Status)
}
