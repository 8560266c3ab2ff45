package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/events"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/pipeline"
)

// RunnerMock is a mock implementation of the Runner interface.
type RunnerMock struct {
	mock.Mock
}

func (m *RunnerMock) Run(ctx context.Context, groups []config.AlertingGroup) (*pipeline.Report, error) {
	args := m.Called(ctx, groups)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Report), args.Error(1)
}

// PublisherMock is a mock implementation of the Publisher interface.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, summary *events.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// NotifierMock is a mock implementation of the Notifier interface.
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Send(ctx context.Context, summary *events.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
