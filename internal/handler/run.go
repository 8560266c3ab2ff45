// Package handler runs alarm generation in response to a trigger and
// reports the outcome.
package handler

import (
	"context"
	"log/slog"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/clock"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/events"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/pipeline"
)

// Runner processes a set of alerting groups.
type Runner interface {
	Run(ctx context.Context, groups []config.AlertingGroup) (*pipeline.Report, error)
}

// Publisher receives per-group outcome events.
type Publisher interface {
	Publish(ctx context.Context, summary *events.RunSummary) error
}

// Notifier receives the human-readable summary of a run with failures.
type Notifier interface {
	Send(ctx context.Context, summary *events.RunSummary) error
}

// ReportMargin is reserved before the invocation deadline for publishing
// outcomes.
const ReportMargin = 30 * time.Second

// GroupLoader reads the alerting groups for a run.
type GroupLoader func() ([]config.AlertingGroup, error)

type RunHandler struct {
	loadGroups GroupLoader
	runner     Runner
	publisher  Publisher
	notifier   Notifier
	clock      clock.Clock
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRunHandler creates a handler. publisher and notifier may be nil.
func NewRunHandler(
	loadGroups GroupLoader,
	runner Runner,
	publisher Publisher,
	notifier Notifier,
	c clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
) *RunHandler {
	return &RunHandler{
		loadGroups: loadGroups,
		runner:     runner,
		publisher:  publisher,
		notifier:   notifier,
		clock:      c,
		timeout:    timeout,
		logger:     logger,
	}
}

// HandleRequest runs alarm generation for a scheduled EventBridge event.
func (h *RunHandler) HandleRequest(ctx context.Context, event lambdaevents.CloudWatchEvent) error {
	h.logger.InfoContext(
		ctx,
		"alarm generation triggered",
		slog.String("source", event.Source),
		slog.String("detailType", event.DetailType),
		slog.Time("time", event.Time),
	)

	_, err := h.Execute(ctx)
	return err
}

// Execute loads the configuration, runs every group and reports the
// outcome. Reporting failures are logged and do not change the result.
func (h *RunHandler) Execute(ctx context.Context) (*events.RunSummary, error) {
	groups, err := h.loadGroups()
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot load alarm configuration",
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	// Deployments outlive the run timeout but must leave time to report
	// before the invocation deadline.
	if deadline, ok := ctx.Deadline(); ok {
		runCtx = pipeline.WithDeployDeadline(runCtx, deadline.Add(-ReportMargin))
	}

	report, runErr := h.runner.Run(runCtx, groups)
	if report == nil {
		h.logger.ErrorContext(
			ctx,
			"alarm generation not started",
			slog.String("error", runErr.Error()),
		)
		return nil, runErr
	}

	summary := events.NewRunSummary(report, h.clock.Now())

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, summary); err != nil {
			h.logger.WarnContext(
				ctx,
				"cannot publish group outcomes",
				slog.String("error", err.Error()),
			)
		}
	}

	if h.notifier != nil && summary.HasFailures() {
		if err := h.notifier.Send(ctx, summary); err != nil {
			h.logger.WarnContext(
				ctx,
				"cannot send run summary",
				slog.String("error", err.Error()),
			)
		}
	}

	if runErr != nil {
		h.logger.ErrorContext(
			ctx,
			"alarm generation finished with failures",
			slog.Int("deployed", summary.Deployed),
			slog.Int("failed", summary.Failed),
			slog.Int("notAttempted", summary.NotAttempted),
			slog.String("error", runErr.Error()),
		)
		return summary, runErr
	}

	h.logger.InfoContext(
		ctx,
		"alarm generation finished",
		slog.Int("deployed", summary.Deployed),
	)

	return summary, nil
}
