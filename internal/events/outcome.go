// Package events provides the run outcome types shared by the publishers.
package events

import (
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/pipeline"
)

// GroupOutcome is the terminal result of one alerting group.
type GroupOutcome struct {
	Group      string    `json:"group"`
	State      string    `json:"state"`
	FailedIn   string    `json:"failedIn,omitempty"`
	Error      string    `json:"error,omitempty"`
	Stack      string    `json:"stack,omitempty"`
	Alarms     int       `json:"alarms"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// RunSummary describes one complete run across all alerting groups.
type RunSummary struct {
	Timestamp    time.Time      `json:"timestamp"`
	Deployed     int            `json:"deployed"`
	Failed       int            `json:"failed"`
	NotAttempted int            `json:"notAttempted"`
	Groups       []GroupOutcome `json:"groups"`
}

// HasFailures reports whether any group did not deploy.
func (s *RunSummary) HasFailures() bool {
	return s.Failed > 0 || s.NotAttempted > 0
}

func NewRunSummary(report *pipeline.Report, at time.Time) *RunSummary {
	summary := &RunSummary{
		Timestamp: at,
		Groups:    make([]GroupOutcome, 0, len(report.Groups)),
	}

	for _, g := range report.Groups {
		outcome := GroupOutcome{
			Group:      g.Group,
			State:      string(g.State),
			Stack:      g.Stack,
			Alarms:     g.Alarms,
			DurationMs: g.Duration.Milliseconds(),
			Timestamp:  at,
		}
		if g.Err != nil {
			outcome.Error = g.Err.Error()
		}
		if g.FailedIn != "" {
			outcome.FailedIn = string(g.FailedIn)
		}

		switch g.State {
		case pipeline.StateDeployed:
			summary.Deployed++
		case pipeline.StateFailed:
			summary.Failed++
		case pipeline.StateNotAttempted:
			summary.NotAttempted++
		}

		summary.Groups = append(summary.Groups, outcome)
	}

	return summary
}
