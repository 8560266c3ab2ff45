// Package metric queries historical CloudWatch statistics used as alarm
// threshold baselines.
package metric

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metric")

// ErrNonUTC is returned when a query window is not expressed in UTC.
var ErrNonUTC = errors.New("query window must be in UTC")

// CloudWatchAPI defines the CloudWatch operations required for metric lookups.
type CloudWatchAPI interface {
	GetMetricStatistics(
		ctx context.Context,
		input *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// Dimension identifies one resource instance within a metric.
type Dimension struct {
	Name  string
	Value string
}

// Query asks for the minimum of one metric over a window.
type Query struct {
	Namespace  string
	MetricName string
	Dimension  Dimension
	Window     Window
	// PeriodSeconds is the aggregation bucket; must be a positive multiple of 60.
	PeriodSeconds int32
}

// Datapoint is one aggregated Minimum sample.
type Datapoint struct {
	Timestamp time.Time
	Minimum   decimal.Decimal
}

// CloudWatchQuerier runs minimum-statistic queries against CloudWatch.
type CloudWatchQuerier struct {
	cw      CloudWatchAPI
	limiter *rate.Limiter
}

// NewCloudWatchQuerier creates a querier. A nil limiter disables throttling.
func NewCloudWatchQuerier(cw CloudWatchAPI, limiter *rate.Limiter) *CloudWatchQuerier {
	return &CloudWatchQuerier{
		cw:      cw,
		limiter: limiter,
	}
}

// QueryMinimum returns the Minimum datapoints for the query, oldest first.
// An empty result is not an error.
func (q *CloudWatchQuerier) QueryMinimum(ctx context.Context, query Query) ([]Datapoint, error) {
	ctx, span := tracer.Start(ctx, "metric.query_minimum")
	defer span.End()
	span.SetAttributes(
		attribute.String("metric.namespace", query.Namespace),
		attribute.String("metric.name", query.MetricName),
		attribute.String("metric.dimension", query.Dimension.Value),
	)

	if !isUTC(query.Window.Start) || !isUTC(query.Window.End) {
		return nil, fmt.Errorf("cannot query %s/%s: %w", query.Namespace, query.MetricName, ErrNonUTC)
	}

	if query.PeriodSeconds <= 0 || query.PeriodSeconds%60 != 0 {
		return nil, fmt.Errorf("cannot query %s/%s: period %ds is not a positive multiple of 60",
			query.Namespace, query.MetricName, query.PeriodSeconds)
	}

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("cannot wait for query slot: %w", err)
		}
	}

	output, err := q.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(query.Namespace),
		MetricName: aws.String(query.MetricName),
		Dimensions: []types.Dimension{{
			Name:  aws.String(query.Dimension.Name),
			Value: aws.String(query.Dimension.Value),
		}},
		StartTime:  aws.Time(query.Window.Start),
		EndTime:    aws.Time(query.Window.End),
		Period:     aws.Int32(query.PeriodSeconds),
		Statistics: []types.Statistic{types.StatisticMinimum},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot get metric statistics for %s/%s %s=%s: %w",
			query.Namespace, query.MetricName, query.Dimension.Name, query.Dimension.Value, err)
	}

	datapoints := make([]Datapoint, 0, len(output.Datapoints))
	for _, dp := range output.Datapoints {
		if dp.Minimum == nil {
			continue
		}
		datapoints = append(datapoints, Datapoint{
			Timestamp: aws.ToTime(dp.Timestamp),
			Minimum:   decimal.NewFromFloat(*dp.Minimum),
		})
	}

	slices.SortFunc(datapoints, func(a, b Datapoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	span.SetAttributes(attribute.Int("metric.datapoints", len(datapoints)))

	return datapoints, nil
}

func isUTC(t time.Time) bool {
	return t.Location() == time.UTC
}
