package alarm

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

const (
	PurposeConsumedReadCapacity = "ConsumedReadCapacity"
	PurposeReadThrottleEvents   = "ReadThrottleEvents"
)

func dynamoDBAlarms(k Kind[config.DynamoDBOptions], n Naming, r *threshold.Resolved) []Definition {
	var defs []Definition

	// On-demand tables have no provisioned capacity to compare against.
	if !r.Baseline.IsZero() {
		const period = 60
		defs = append(defs, Definition{
			Name: n.Name(r.ResourceName, PurposeConsumedReadCapacity),
			Description: fmt.Sprintf("%s consumes more than %s read capacity units per second (%s baseline %s)",
				r.ResourceName, r.Threshold, r.Source, r.Baseline),
			Kind:               k.Name,
			ResourceName:       r.ResourceName,
			Purpose:            PurposeConsumedReadCapacity,
			Namespace:          k.Namespace,
			MetricName:         "ConsumedReadCapacityUnits",
			Dimensions:         k.dimension(r.ResourceName),
			Statistic:          types.StatisticSum,
			Period:             period,
			EvaluationPeriods:  5,
			DatapointsToAlarm:  5,
			Threshold:          r.Threshold.Mul(decimal.NewFromInt(period)),
			ComparisonOperator: Operator(r.Direction),
			TreatMissingData:   MissingNotBreaching,
		})
	}

	defs = append(defs, Definition{
		Name:               n.Name(r.ResourceName, PurposeReadThrottleEvents),
		Description:        fmt.Sprintf("%s is throttling reads", r.ResourceName),
		Kind:               k.Name,
		ResourceName:       r.ResourceName,
		Purpose:            PurposeReadThrottleEvents,
		Namespace:          k.Namespace,
		MetricName:         "ReadThrottleEvents",
		Dimensions:         k.dimension(r.ResourceName),
		Statistic:          types.StatisticSum,
		Period:             60,
		EvaluationPeriods:  1,
		DatapointsToAlarm:  1,
		Threshold:          decimal.Zero,
		ComparisonOperator: types.ComparisonOperatorGreaterThanThreshold,
		TreatMissingData:   MissingNotBreaching,
	})

	return defs
}
