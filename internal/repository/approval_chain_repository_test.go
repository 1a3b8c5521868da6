package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func ruleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "request_type", "department_id", "project_id", "level_number", "approver_rule", "approver_employee_id", "is_final_level", "active", "created_at", "updated_at"})
}

func TestApprovalChainRepositoryFindByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalChainRepository(db)
	dept := "dept-1"
	rows := ruleRows().
		AddRow("rule-1", "LEAVE", &dept, nil, 1, "DIRECT_MANAGER", nil, false, true, time.Now(), time.Now()).
		AddRow("rule-2", "LEAVE", &dept, nil, 2, "HR_MANAGER", nil, true, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM approval_level_rules").
		WithArgs(models.RequestTypeLeave, "dept-1").
		WillReturnRows(rows)

	rules, err := repo.FindByDepartment(context.Background(), models.RequestTypeLeave, "dept-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].LevelNumber)
	assert.Equal(t, models.RuleHRManager, rules[1].ApproverRule)
	assert.True(t, rules[1].IsFinalLevel)
}

func TestApprovalChainRepositoryFindGlobal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalChainRepository(db)
	rows := ruleRows().
		AddRow("rule-9", "LOAN", nil, nil, 1, "FINANCE_MANAGER", nil, false, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM approval_level_rules").
		WithArgs(models.RequestTypeLoan).
		WillReturnRows(rows)

	rules, err := repo.FindGlobal(context.Background(), models.RequestTypeLoan)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Nil(t, rules[0].DepartmentID)
	assert.Nil(t, rules[0].ProjectID)
}

func TestApprovalChainRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalChainRepository(db)
	mock.ExpectExec("INSERT INTO approval_level_rules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.ApprovalLevelRule{
		RequestType:  models.RequestTypeLeave,
		LevelNumber:  1,
		ApproverRule: models.RuleDirectManager,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
}

func TestApprovalChainRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalChainRepository(db)
	requestType := models.RequestTypeLeave
	rows := ruleRows().
		AddRow("rule-1", "LEAVE", nil, nil, 1, "DIRECT_MANAGER", nil, false, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM approval_level_rules").
		WithArgs(requestType).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(requestType).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rules, total, err := repo.List(context.Background(), models.ApprovalChainFilter{RequestType: &requestType})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rules, 1)
}

func TestApprovalChainRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalChainRepository(db)
	mock.ExpectExec("UPDATE approval_level_rules SET active = FALSE").
		WithArgs("rule-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "rule-1"))
}
