// Package publish sends alerting-group outcomes to EventBridge.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/events"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/publish")

const (
	// EventSource is the source of every published event.
	EventSource = "cloudwatch.alarm.generator"
	// DetailType is the detail-type of every published event.
	DetailType = "Alerting Group Outcome"

	// maxEntriesPerCall is the PutEvents batch limit.
	maxEntriesPerCall = 10
)

// EventBridgeAPI defines required EventBridge operations.
type EventBridgeAPI interface {
	PutEvents(
		ctx context.Context,
		params *eventbridge.PutEventsInput,
		optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher publishes one event per alerting group to EventBridge.
type Publisher struct {
	client       EventBridgeAPI
	eventBusName string
}

// NewPublisher creates a new EventBridge publisher.
func NewPublisher(client EventBridgeAPI, eventBusName string) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
	}
}

// Publish sends every group outcome of a run. Rejected entries are
// reported together after all batches were attempted.
func (p *Publisher) Publish(ctx context.Context, summary *events.RunSummary) error {
	ctx, span := tracer.Start(ctx, "publish.eventbridge")
	defer span.End()
	span.SetAttributes(
		attribute.String("eventbus.name", p.eventBusName),
		attribute.Int("events.count", len(summary.Groups)),
	)

	var errs []error
	for batch := range slices.Chunk(summary.Groups, maxEntriesPerCall) {
		entries := make([]types.PutEventsRequestEntry, 0, len(batch))
		for _, outcome := range batch {
			detail, err := json.Marshal(outcome)
			if err != nil {
				return fmt.Errorf("cannot marshal outcome for group %q: %w", outcome.Group, err)
			}

			entries = append(entries, types.PutEventsRequestEntry{
				Detail:       aws.String(string(detail)),
				DetailType:   aws.String(DetailType),
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(EventSource),
				Time:         aws.Time(outcome.Timestamp),
			})
		}

		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return fmt.Errorf("cannot put events: %w", err)
		}

		if out.FailedEntryCount == 0 {
			continue
		}

		for i, entry := range out.Entries {
			if entry.ErrorCode == nil {
				continue
			}
			errs = append(errs, fmt.Errorf("event for group %q rejected: %s - %s",
				batch[i].Group, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage)))
		}
	}

	return errors.Join(errs...)
}
