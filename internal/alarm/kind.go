package alarm

import (
	"slices"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

// Kind describes one supported resource kind: where its metrics live, how
// its threshold is looked up, and which alarms it produces.
type Kind[T config.Options[T]] struct {
	Name           string
	Namespace      string
	DimensionName  string
	LookbackMetric string
	Direction      threshold.Direction
	Lookback       func(opts T) config.Optional[int]
	build          func(k Kind[T], n Naming, r *threshold.Resolved) []Definition
}

// Request prepares the threshold lookup for one located resource.
func (k Kind[T]) Request(res resource.Resource, opts T) threshold.Request {
	return threshold.Request{
		Resource:        res,
		LookbackMinutes: k.Lookback(opts),
		Metric: threshold.LookbackMetric{
			Namespace:     k.Namespace,
			MetricName:    k.LookbackMetric,
			DimensionName: k.DimensionName,
		},
		Direction: k.Direction,
	}
}

// Build returns the alarms for one resource. It performs no I/O.
func (k Kind[T]) Build(n Naming, r *threshold.Resolved) []Definition {
	return k.build(k, n, r)
}

func (k Kind[T]) dimension(resourceName string) []Dimension {
	return sortedDimensions(Dimension{Name: k.DimensionName, Value: resourceName})
}

var AutoScaling = Kind[config.AutoScalingOptions]{
	Name:           "AutoScaling",
	Namespace:      "AWS/AutoScaling",
	DimensionName:  "AutoScalingGroupName",
	LookbackMetric: "GroupDesiredCapacity",
	Direction:      threshold.Below,
	Lookback: func(opts config.AutoScalingOptions) config.Optional[int] {
		return opts.InstanceCountIncreaseDelayMinutes
	},
	build: autoScalingAlarms,
}

var DynamoDB = Kind[config.DynamoDBOptions]{
	Name:           "DynamoDB",
	Namespace:      "AWS/DynamoDB",
	DimensionName:  "TableName",
	LookbackMetric: "ProvisionedReadCapacityUnits",
	Direction:      threshold.Above,
	Lookback: func(opts config.DynamoDBOptions) config.Optional[int] {
		return opts.CapacityLookbackMinutes
	},
	build: dynamoDBAlarms,
}

var kindOrder = []string{AutoScaling.Name, DynamoDB.Name}

// KindOrder ranks kinds for stable stack ordering. Unknown kinds sort last.
func KindOrder(name string) int {
	if i := slices.Index(kindOrder, name); i >= 0 {
		return i
	}
	return len(kindOrder)
}
