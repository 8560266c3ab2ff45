package alarm

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

const (
	PurposeInService            = "InService"
	PurposeNoInstancesInService = "NoInstancesInService"

	// Only published while group metrics collection is enabled.
	inServiceMetric = "GroupInServiceInstances"
)

func autoScalingAlarms(k Kind[config.AutoScalingOptions], n Naming, r *threshold.Resolved) []Definition {
	defs := []Definition{{
		Name: n.Name(r.ResourceName, PurposeInService),
		Description: fmt.Sprintf("%s has fewer than %s instances in service (%s baseline %s)",
			r.ResourceName, r.Threshold, r.Source, r.Baseline),
		Kind:               k.Name,
		ResourceName:       r.ResourceName,
		Purpose:            PurposeInService,
		Namespace:          k.Namespace,
		MetricName:         inServiceMetric,
		Dimensions:         k.dimension(r.ResourceName),
		Statistic:          types.StatisticMinimum,
		Period:             60,
		EvaluationPeriods:  5,
		DatapointsToAlarm:  5,
		Threshold:          r.Threshold,
		ComparisonOperator: Operator(r.Direction),
		TreatMissingData:   MissingNotBreaching,
	}}

	// Groups scaled to zero would alarm permanently.
	if r.LiveValue.IsPositive() {
		defs = append(defs, Definition{
			Name:               n.Name(r.ResourceName, PurposeNoInstancesInService),
			Description:        fmt.Sprintf("%s has no instances in service", r.ResourceName),
			Kind:               k.Name,
			ResourceName:       r.ResourceName,
			Purpose:            PurposeNoInstancesInService,
			Namespace:          k.Namespace,
			MetricName:         inServiceMetric,
			Dimensions:         k.dimension(r.ResourceName),
			Statistic:          types.StatisticMinimum,
			Period:             60,
			EvaluationPeriods:  3,
			DatapointsToAlarm:  3,
			Threshold:          decimal.NewFromInt(1),
			ComparisonOperator: types.ComparisonOperatorLessThanThreshold,
			TreatMissingData:   MissingNotBreaching,
		})
	}

	return defs
}
