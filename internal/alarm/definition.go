// Package alarm builds CloudWatch alarm definitions from resolved thresholds.
package alarm

import (
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

// TreatMissingData values accepted by CloudWatch.
const (
	MissingBreaching    = "breaching"
	MissingNotBreaching = "notBreaching"
	MissingIgnore       = "ignore"
)

// Definition is one CloudWatch metric alarm, ready to render.
type Definition struct {
	Name               string
	Description        string
	Kind               string
	ResourceName       string
	Purpose            string
	Namespace          string
	MetricName         string
	Dimensions         []Dimension
	Statistic          types.Statistic
	Period             int32
	EvaluationPeriods  int32
	DatapointsToAlarm  int32
	Threshold          decimal.Decimal
	ComparisonOperator types.ComparisonOperator
	TreatMissingData   string
}

type Dimension struct {
	Name  string
	Value string
}

// Naming produces alarm names of the form <group>-<resource>-<purpose>[-<suffix>].
type Naming struct {
	Group  string
	Suffix string
}

func (n Naming) Name(resourceName, purpose string) string {
	parts := []string{n.Group, resourceName, purpose}
	if n.Suffix != "" {
		parts = append(parts, n.Suffix)
	}
	return strings.Join(parts, "-")
}

// Operator maps a threshold direction to the comparison that fires past it.
func Operator(d threshold.Direction) types.ComparisonOperator {
	if d == threshold.Above {
		return types.ComparisonOperatorGreaterThanThreshold
	}
	return types.ComparisonOperatorLessThanThreshold
}

func sortedDimensions(dims ...Dimension) []Dimension {
	slices.SortFunc(dims, func(a, b Dimension) int {
		return strings.Compare(a.Name, b.Name)
	})
	return dims
}
