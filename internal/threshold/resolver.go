// Package threshold turns a resource's live value or historical metric
// minimum into an alarm threshold.
package threshold

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/clock"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metric"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold")

// DefaultFraction is applied to every baseline.
var DefaultFraction = decimal.RequireFromString("0.5")

// Source records where a baseline came from.
type Source string

const (
	SourceCurrentValue      Source = "static-current-value"
	SourceHistoricalMinimum Source = "historical-minimum"
)

// Direction is the side of the threshold on which an alarm fires.
type Direction string

const (
	Below Direction = "below"
	Above Direction = "above"
)

// MinimumQuerier looks up the minimum of a metric over a window.
type MinimumQuerier interface {
	QueryMinimum(ctx context.Context, query metric.Query) ([]metric.Datapoint, error)
}

// LookbackMetric is the metric a kind queries when a lookback is configured.
type LookbackMetric struct {
	Namespace     string
	MetricName    string
	DimensionName string
}

// Request is everything needed to resolve one resource's threshold.
type Request struct {
	Resource resource.Resource
	// LookbackMinutes is the merged lookback option; unset means none.
	LookbackMinutes config.Optional[int]
	Metric          LookbackMetric
	Direction       Direction
}

// Resolved is the threshold for one resource in one run.
type Resolved struct {
	ResourceName string
	Threshold    decimal.Decimal
	Baseline     decimal.Decimal
	LiveValue    decimal.Decimal
	Source       Source
	Direction    Direction
	// FellBack is set when a lookback was configured but returned no data.
	FellBack bool
}

type Resolver struct {
	clock    clock.Clock
	querier  MinimumQuerier
	fraction decimal.Decimal
	logger   *slog.Logger
}

func NewResolver(c clock.Clock, querier MinimumQuerier, logger *slog.Logger) *Resolver {
	return &Resolver{
		clock:    c,
		querier:  querier,
		fraction: DefaultFraction,
		logger:   logger,
	}
}

// Resolve computes baseline × fraction. Without a lookback the baseline is
// the live value. With one, it is the smallest Minimum over
// [now-lookback, now], or the live value if the metric has no datapoints.
// Query failures are returned, never replaced by the fallback.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolved, error) {
	ctx, span := tracer.Start(ctx, "threshold.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("resource.name", req.Resource.Name))

	minutes, ok := req.LookbackMinutes.Get()
	if !ok {
		return r.resolved(req, req.Resource.LiveValue, SourceCurrentValue, false), nil
	}

	if err := config.CheckLookback(minutes); err != nil {
		return nil, fmt.Errorf("cannot resolve threshold for %q: lookback minutes %w", req.Resource.Name, err)
	}

	window := metric.NewWindow(r.clock.Now(), time.Duration(minutes)*time.Minute)

	datapoints, err := r.querier.QueryMinimum(ctx, metric.Query{
		Namespace:  req.Metric.Namespace,
		MetricName: req.Metric.MetricName,
		Dimension: metric.Dimension{
			Name:  req.Metric.DimensionName,
			Value: req.Resource.Name,
		},
		Window:        window,
		PeriodSeconds: int32(minutes * 60),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot resolve threshold for %q: %w", req.Resource.Name, err)
	}

	if len(datapoints) == 0 {
		r.logger.InfoContext(
			ctx,
			"no datapoints in lookback window; using live value",
			slog.String("resource", req.Resource.Name),
			slog.String("metricName", req.Metric.MetricName),
			slog.Int("lookbackMinutes", minutes),
		)
		return r.resolved(req, req.Resource.LiveValue, SourceCurrentValue, true), nil
	}

	lowest := datapoints[0].Minimum
	for _, dp := range datapoints[1:] {
		if dp.Minimum.LessThan(lowest) {
			lowest = dp.Minimum
		}
	}

	return r.resolved(req, lowest, SourceHistoricalMinimum, false), nil
}

func (r *Resolver) resolved(req Request, baseline decimal.Decimal, source Source, fellBack bool) *Resolved {
	return &Resolved{
		ResourceName: req.Resource.Name,
		Threshold:    baseline.Mul(r.fraction),
		Baseline:     baseline,
		LiveValue:    req.Resource.LiveValue,
		Source:       source,
		Direction:    req.Direction,
		FellBack:     fellBack,
	}
}
