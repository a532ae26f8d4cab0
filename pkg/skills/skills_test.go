package skills

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resource), args.Error(1)
}

func (m *mockGateway) GetUsage(ctx context.Context, windowDays int, creds domain.Credentials) ([]domain.UsagePoint, error) {
	args := m.Called(ctx, windowDays, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
