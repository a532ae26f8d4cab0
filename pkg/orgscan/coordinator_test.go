package orgscan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Tree(ctx context.Context) ([]domain.OrgUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrgUnit), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListResources(
	ctx context.Context,
	kind domain.ResourceKind,
	region string,
	creds domain.Credentials,
) ([]domain.Resource, error) {
	args := m.Called(ctx, kind, region, creds)
	return args.Get(0).([]domain.Resource), args.Error(1)
}

func (m *mockGateway) GetUsage(ctx context.Context, windowDays int, creds domain.Credentials) ([]domain.UsagePoint, error) {
	args := m.Called(ctx, windowDays, creds)
	return args.Get(0).([]domain.UsagePoint), args.Error(1)
}

func (m *mockGateway) Mutate(ctx context.Context, mut gateway.Mutation, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, mut, creds)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) AssumeIdentity(ctx context.Context, accountID string) (domain.Credentials, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.Credentials), args.Error(1)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunScan(ctx context.Context, skillIDs []string, scope domain.Scope) ([]domain.SkillResult, error) {
	args := m.Called(ctx, skillIDs, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SkillResult), args.Error(1)
}

func scanResult(skill string, critical int, impact float64) domain.SkillResult {
	result := domain.SkillResult{Skill: skill}
	for i := 0; i < critical; i++ {
		result.Findings = append(result.Findings, domain.Finding{
			Skill: skill, Severity: domain.SeverityCritical,
		})
	}
	result.Findings = append(result.Findings, domain.Finding{
		Skill: skill, Severity: domain.SeverityLow, MonthlyImpact: impact,
	})
	return result
}

func TestScanAssumeFailureDoesNotAbortSiblings(t *testing.T) {
	ctx := context.Background()
	directory := new(mockDirectory)
	gw := new(mockGateway)
	runner := new(mockRunner)

	directory.On("Tree", mock.Anything).Return([]domain.OrgUnit{
		{ID: "ou-1", Name: "Workloads", Accounts: []domain.OrgAccount{
			{ID: "111111111111", Name: "prod"},
			{ID: "222222222222", Name: "staging"},
		}},
	}, nil)

	prodCreds := domain.Credentials{AccessKeyID: "ASIA1", SecretAccessKey: "x", SessionToken: "y"}
	gw.On("AssumeIdentity", mock.Anything, "111111111111").Return(prodCreds, nil)
	gw.On("AssumeIdentity", mock.Anything, "222222222222").
		Return(domain.Credentials{}, errors.New("AccessDenied: role not found"))

	runner.On("RunScan", mock.Anything, []string{"zombie-hunter"}, mock.MatchedBy(func(s domain.Scope) bool {
		return s.AccountID == "111111111111" && s.Credentials == prodCreds
	})).Return([]domain.SkillResult{scanResult("zombie-hunter", 1, 8.0)}, nil)

	result, err := coordinatorScan(ctx, directory, gw, runner)
	require.NoError(t, err)

	unit := result.Units["Workloads"]
	require.Len(t, unit.Accounts, 2)

	prod := unit.Accounts["111111111111"]
	assert.Empty(t, prod.Error)
	assert.Equal(t, 2, prod.FindingsCount)
	assert.Equal(t, 1, prod.CriticalCount)

	staging := unit.Accounts["222222222222"]
	assert.Contains(t, staging.Error, "AccessDenied")
	assert.Zero(t, staging.FindingsCount)
	assert.Empty(t, staging.Skills)

	// Rollups count only the account that scanned.
	assert.Equal(t, 2, result.Summary.TotalFindings)
	assert.Equal(t, 1, result.Summary.TotalCritical)
	assert.InDelta(t, 8.0, result.Summary.MonthlyImpact, 0.001)
	runner.AssertNumberOfCalls(t, "RunScan", 1)
}

func coordinatorScan(ctx context.Context, d *mockDirectory, gw *mockGateway, r *mockRunner) (domain.OrgScanResult, error) {
	return NewCoordinator(d, gw, r).Scan(ctx, []string{"zombie-hunter"}, []string{"us-east-1"}, "")
}

func TestScanManagementAccountUsesAmbientIdentity(t *testing.T) {
	ctx := context.Background()
	directory := new(mockDirectory)
	gw := new(mockGateway)
	runner := new(mockRunner)

	directory.On("Tree", mock.Anything).Return([]domain.OrgUnit{}, nil)
	runner.On("RunScan", mock.Anything, []string{"zombie-hunter"}, mock.MatchedBy(func(s domain.Scope) bool {
		return s.AccountID == "999999999999" && s.Credentials.IsZero()
	})).Return([]domain.SkillResult{scanResult("zombie-hunter", 0, 3.6)}, nil)

	result, err := NewCoordinator(directory, gw, runner).
		Scan(ctx, []string{"zombie-hunter"}, []string{"us-east-1"}, "999999999999")
	require.NoError(t, err)

	mgmt, ok := result.Units["Management"]
	require.True(t, ok)
	assert.Contains(t, mgmt.Accounts, "999999999999")
	gw.AssertNotCalled(t, "AssumeIdentity")
}

func TestScanTreeFailure(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("Tree", mock.Anything).Return(nil, errors.New("organizations unavailable"))

	_, err := NewCoordinator(directory, new(mockGateway), new(mockRunner)).
		Scan(context.Background(), []string{"zombie-hunter"}, []string{"us-east-1"}, "")
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
}
