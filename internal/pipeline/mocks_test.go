package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metric"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/stack"
)

// LocatorMock is a mock implementation of the resource.Locator interface.
type LocatorMock struct {
	mock.Mock
}

func (m *LocatorMock) List(ctx context.Context, names []string) ([]resource.Resource, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]resource.Resource), args.Error(1)
}

// DeployerMock is a mock implementation of the deploy.Deployer interface.
type DeployerMock struct {
	mock.Mock
}

func (m *DeployerMock) Deploy(ctx context.Context, s *stack.Stack) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MinimumQuerierMock is a mock implementation of the threshold.MinimumQuerier interface.
type MinimumQuerierMock struct {
	mock.Mock
}

func (m *MinimumQuerierMock) QueryMinimum(ctx context.Context, query metric.Query) ([]metric.Datapoint, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metric.Datapoint), args.Error(1)
}
