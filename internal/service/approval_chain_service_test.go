package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
)

type chainAdminRepoStub struct {
	rules []models.ApprovalLevelRule
}

func (s *chainAdminRepoStub) FindByDepartment(ctx context.Context, requestType models.RequestType, departmentID string) ([]models.ApprovalLevelRule, error) {
	out := []models.ApprovalLevelRule{}
	for _, r := range s.rules {
		if r.RequestType == requestType && r.DepartmentID != nil && *r.DepartmentID == departmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *chainAdminRepoStub) FindByProject(ctx context.Context, requestType models.RequestType, projectID string) ([]models.ApprovalLevelRule, error) {
	out := []models.ApprovalLevelRule{}
	for _, r := range s.rules {
		if r.RequestType == requestType && r.ProjectID != nil && *r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *chainAdminRepoStub) FindGlobal(ctx context.Context, requestType models.RequestType) ([]models.ApprovalLevelRule, error) {
	out := []models.ApprovalLevelRule{}
	for _, r := range s.rules {
		if r.RequestType == requestType && r.DepartmentID == nil && r.ProjectID == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *chainAdminRepoStub) List(ctx context.Context, filter models.ApprovalChainFilter) ([]models.ApprovalLevelRule, int, error) {
	return s.rules, len(s.rules), nil
}

func (s *chainAdminRepoStub) FindByID(ctx context.Context, id string) (*models.ApprovalLevelRule, error) {
	for i := range s.rules {
		if s.rules[i].ID == id {
			found := s.rules[i]
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *chainAdminRepoStub) Create(ctx context.Context, rule *models.ApprovalLevelRule) error {
	if rule.ID == "" {
		rule.ID = "rule-new"
	}
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *chainAdminRepoStub) Update(ctx context.Context, rule *models.ApprovalLevelRule) error {
	for i := range s.rules {
		if s.rules[i].ID == rule.ID {
			s.rules[i] = *rule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *chainAdminRepoStub) Deactivate(ctx context.Context, id string) error {
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Active = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func newTestChainService(repo *chainAdminRepoStub, employees *employeesStub) *ApprovalChainService {
	if employees == nil {
		employees = &employeesStub{}
	}
	return NewApprovalChainService(repo, employees, nil, nil, nil)
}

func adminClaims() *models.JWTClaims {
	return testClaims("user-admin", "", models.RoleSuperAdmin)
}

func TestChainRuleCreate(t *testing.T) {
	repo := &chainAdminRepoStub{}
	svc := newTestChainService(repo, nil)

	created, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:  "LOAN",
		LevelNumber:  1,
		ApproverRule: "FINANCE_MANAGER",
		IsFinalLevel: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestTypeLoan, created.RequestType)
	assert.True(t, created.Active)
	require.Len(t, repo.rules, 1)
}

func TestChainRuleCreateUnknownRoutingRule(t *testing.T) {
	svc := newTestChainService(&chainAdminRepoStub{}, nil)

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:  "LOAN",
		LevelNumber:  1,
		ApproverRule: "BRANCH_SUPERVISOR",
		IsFinalLevel: true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownRoutingRule.Code, appErrors.FromError(err).Code)
}

func TestChainRuleCreateDuplicateLevel(t *testing.T) {
	repo := &chainAdminRepoStub{rules: []models.ApprovalLevelRule{
		{ID: "rule-1", RequestType: models.RequestTypeLoan, LevelNumber: 1, ApproverRule: models.RuleFinanceManager, Active: true},
	}}
	svc := newTestChainService(repo, nil)

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:  "LOAN",
		LevelNumber:  1,
		ApproverRule: "GENERAL_MANAGER",
		IsFinalLevel: true,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErrors.FromError(err).Code)
}

func TestChainRuleCreateDualScopeRejected(t *testing.T) {
	svc := newTestChainService(&chainAdminRepoStub{}, nil)

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:  "LEAVE",
		DepartmentID: strPtr("dept-1"),
		ProjectID:    strPtr("proj-1"),
		LevelNumber:  1,
		ApproverRule: "DIRECT_MANAGER",
		IsFinalLevel: true,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErrors.FromError(err).Code)
}

func TestChainRuleCreateFixedEmployeeRequiresID(t *testing.T) {
	svc := newTestChainService(&chainAdminRepoStub{}, nil)

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:  "LEAVE",
		LevelNumber:  1,
		ApproverRule: "FIXED_EMPLOYEE",
		IsFinalLevel: true,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErrors.FromError(err).Code)
}

func TestChainRuleCreateFixedEmployeeMustExist(t *testing.T) {
	svc := newTestChainService(&chainAdminRepoStub{}, &employeesStub{})

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateChainRuleRequest{
		RequestType:        "LEAVE",
		LevelNumber:        1,
		ApproverRule:       "FIXED_EMPLOYEE",
		ApproverEmployeeID: strPtr("emp-ghost"),
		IsFinalLevel:       true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestChainRuleUpdateKeepsOwnLevel(t *testing.T) {
	repo := &chainAdminRepoStub{rules: []models.ApprovalLevelRule{
		{ID: "rule-1", RequestType: models.RequestTypeLoan, LevelNumber: 1, ApproverRule: models.RuleFinanceManager, Active: true},
		{ID: "rule-2", RequestType: models.RequestTypeLoan, LevelNumber: 2, ApproverRule: models.RuleGeneralManager, IsFinalLevel: true, Active: true},
	}}
	svc := newTestChainService(repo, nil)

	// Re-saving rule-1 at its own level is not a duplicate.
	updated, err := svc.Update(context.Background(), adminClaims(), "rule-1", dto.UpdateChainRuleRequest{
		LevelNumber:  1,
		ApproverRule: "HR_MANAGER",
		Active:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RuleHRManager, updated.ApproverRule)

	// Moving it onto rule-2's level is.
	_, err = svc.Update(context.Background(), adminClaims(), "rule-1", dto.UpdateChainRuleRequest{
		LevelNumber:  2,
		ApproverRule: "HR_MANAGER",
		Active:       true,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFIGURATION_ERROR", appErrors.FromError(err).Code)
}

func TestChainRuleDeactivate(t *testing.T) {
	repo := &chainAdminRepoStub{rules: []models.ApprovalLevelRule{
		{ID: "rule-1", RequestType: models.RequestTypeLoan, LevelNumber: 1, ApproverRule: models.RuleFinanceManager, Active: true},
	}}
	svc := newTestChainService(repo, nil)

	require.NoError(t, svc.Deactivate(context.Background(), adminClaims(), "rule-1"))
	assert.False(t, repo.rules[0].Active)

	err := svc.Deactivate(context.Background(), adminClaims(), "rule-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
