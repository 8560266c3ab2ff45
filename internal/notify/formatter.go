// Package notify sends a human-readable run summary to SNS.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/events"
)

// FormatText converts a run summary to a plain-text message. Failed and
// not-attempted groups are listed first with their causes.
func FormatText(summary *events.RunSummary) string {
	var msg strings.Builder

	fmt.Fprintf(&msg, "CloudWatch alarm generation run: %d deployed, %d failed, %d not attempted\n",
		summary.Deployed, summary.Failed, summary.NotAttempted)

	if summary.HasFailures() {
		msg.WriteString("\nGroups that did not deploy:\n")
		n := 0
		for _, g := range summary.Groups {
			if g.State == "Deployed" {
				continue
			}
			n++
			if g.FailedIn != "" {
				fmt.Fprintf(&msg, "%d. %s (%s while %s): %s\n", n, g.Group, g.State, strings.ToLower(g.FailedIn), g.Error)
			} else {
				fmt.Fprintf(&msg, "%d. %s (%s): %s\n", n, g.Group, g.State, g.Error)
			}
		}
	}

	var deployed []string
	for _, g := range summary.Groups {
		if g.State == "Deployed" {
			deployed = append(deployed, fmt.Sprintf("%s (%d alarms)", g.Stack, g.Alarms))
		}
	}
	if len(deployed) > 0 {
		msg.WriteString("\nDeployed stacks:\n")
		for _, d := range deployed {
			msg.WriteString("- ")
			msg.WriteString(d)
			msg.WriteString("\n")
		}
	}

	fmt.Fprintf(&msg, "\nTimestamp: %s", summary.Timestamp.Format(time.RFC3339))

	return msg.String()
}

// Subject is the SNS subject line for a summary.
func Subject(summary *events.RunSummary) string {
	if summary.HasFailures() {
		return fmt.Sprintf("CloudWatch alarm generation - %d group(s) did not deploy", summary.Failed+summary.NotAttempted)
	}
	return "CloudWatch alarm generation - all groups deployed"
}
