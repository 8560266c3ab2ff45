package threshold

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metric"
)

// MinimumQuerierMock is a mock implementation of the MinimumQuerier interface.
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
