package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of one alerting group within a run.
type State string

const (
	StatePending      State = "Pending"
	StateResolving    State = "Resolving"
	StateBuilding     State = "Building"
	StateDeploying    State = "Deploying"
	StateDeployed     State = "Deployed"
	StateFailed       State = "Failed"
	StateNotAttempted State = "NotAttempted"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDeployed || s == StateFailed || s == StateNotAttempted
}

// GroupResult is the outcome of one alerting group.
type GroupResult struct {
	Group string
	State State
	// FailedIn is the stage that was running when the group failed.
	FailedIn State
	Err      error
	Stack    string
	Alarms   int
	Duration time.Duration
}

// Report lists every group's result in input order.
type Report struct {
	Groups []GroupResult
}

// Err aggregates failed and not-attempted groups, or returns nil.
func (r *Report) Err() error {
	var failed []GroupError
	for _, g := range r.Groups {
		if g.State == StateFailed || g.State == StateNotAttempted {
			failed = append(failed, GroupError{Group: g.Group, State: g.State, Stage: g.FailedIn, Err: g.Err})
		}
	}

	if len(failed) == 0 {
		return nil
	}

	return &RunError{Groups: failed, Total: len(r.Groups)}
}

// Counts returns the number of groups per terminal state.
func (r *Report) Counts() map[State]int {
	counts := make(map[State]int)
	for _, g := range r.Groups {
		counts[g.State]++
	}
	return counts
}

// GroupError is one group's failure cause.
type GroupError struct {
	Group string
	State State
	Stage State
	Err   error
}

func (e GroupError) Error() string {
	if e.State == StateNotAttempted {
		return fmt.Sprintf("alerting group %q not attempted: %v", e.Group, e.Err)
	}
	return fmt.Sprintf("alerting group %q failed while %s: %v", e.Group, strings.ToLower(string(e.Stage)), e.Err)
}

func (e GroupError) Unwrap() error {
	return e.Err
}

// RunError is returned after every group reached a terminal state and at
// least one did not deploy. Deployed groups are not rolled back.
type RunError struct {
	Groups []GroupError
	Total  int
}

func (e *RunError) Error() string {
	msgs := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		msgs[i] = g.Error()
	}
	return fmt.Sprintf("%d of %d alerting groups did not deploy: %s", len(e.Groups), e.Total, strings.Join(msgs, "; "))
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Groups))
	for i, g := range e.Groups {
		errs[i] = g
	}
	return errs
}
