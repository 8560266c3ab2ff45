// Package stack groups alarm definitions into one deployable stack per
// alerting group and renders it as a CloudFormation template.
package stack

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
)

const maxNameLength = 128

var (
	ErrInvalidName    = errors.New("invalid stack name")
	ErrDuplicateAlarm = errors.New("duplicate alarm name")

	namePattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9]*$`)
)

// Stack is the unit of deployment for one alerting group.
type Stack struct {
	Name    string
	Group   string
	Targets []config.AlertTarget
	Alarms  []alarm.Definition
}

// Name returns the stack name for a group.
func Name(prefix, group string) string {
	return prefix + "-" + group
}

func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w %q: longer than %d characters", ErrInvalidName, name, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidName, name, namePattern)
	}
	return nil
}

// Compose orders defs by kind, resource and purpose and rejects alarm names
// that occur twice. The input slice is not modified.
func Compose(prefix string, group config.AlertingGroup, defs []alarm.Definition) (*Stack, error) {
	name := Name(prefix, group.Name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	alarms := slices.Clone(defs)
	slices.SortStableFunc(alarms, func(a, b alarm.Definition) int {
		return cmp.Or(
			cmp.Compare(alarm.KindOrder(a.Kind), alarm.KindOrder(b.Kind)),
			cmp.Compare(a.ResourceName, b.ResourceName),
			cmp.Compare(a.Purpose, b.Purpose),
		)
	})

	seen := make(map[string]bool, len(alarms))
	for _, a := range alarms {
		if seen[a.Name] {
			return nil, fmt.Errorf("cannot compose stack %q: %w: %s", name, ErrDuplicateAlarm, a.Name)
		}
		seen[a.Name] = true
	}

	return &Stack{
		Name:    name,
		Group:   group.Name,
		Targets: slices.Clone(group.Targets),
		Alarms:  alarms,
	}, nil
}
