// Package resource discovers the live AWS resources alarms are generated for.
package resource

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource")

// Resource is a discovered resource and the live attribute thresholds
// fall back to (desired capacity, provisioned throughput).
type Resource struct {
	Name      string
	LiveValue decimal.Decimal
}

// Locator lists resources of one kind.
type Locator interface {
	// List returns the resources among names that currently exist.
	// Names that match nothing are omitted, not reported as errors.
	List(ctx context.Context, names []string) ([]Resource, error)
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
