package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid alarm configuration")

// ValidationError lists every problem found in an alarm configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

var (
	groupNamePattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9]*$`)
	suffixPattern    = regexp.MustCompile(`^[-A-Za-z0-9_.]*$`)
)

// Validate checks a set of alerting groups before any of them is processed.
func Validate(groups []AlertingGroup) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(groups) == 0 {
		add("no alerting groups configured")
	}

	seen := make(map[string]bool, len(groups))
	for i, g := range groups {
		path := fmt.Sprintf("alertingGroups[%d]", i)

		switch {
		case g.Name == "":
			add("%s.name is required", path)
		case !groupNamePattern.MatchString(g.Name):
			add("%s.name %q must start with a letter and contain only letters, digits and hyphens", path, g.Name)
		case seen[g.Name]:
			add("%s.name %q is not unique", path, g.Name)
		}
		seen[g.Name] = true

		if !suffixPattern.MatchString(g.AlarmNameSuffix) {
			add("%s.alarmNameSuffix %q contains invalid characters", path, g.AlarmNameSuffix)
		}

		for j, t := range g.Targets {
			tpath := fmt.Sprintf("%s.targets[%d]", path, j)
			switch {
			case t.Email != "" && t.URL != "":
				add("%s must set only one of email or url", tpath)
			case t.Email != "":
				if !strings.Contains(t.Email, "@") {
					add("%s.email %q is not an email address", tpath, t.Email)
				}
			case t.URL != "":
				if !strings.HasPrefix(t.URL, "https://") {
					add("%s.url %q must use https", tpath, t.URL)
				}
			default:
				add("%s must set email or url", tpath)
			}
		}

		problems = append(problems, validateService(path+".services.autoScaling", g.Services.AutoScaling,
			func(p string, o AutoScalingOptions) []string {
				return checkLookback(p+".instanceCountIncreaseDelayMinutes", o.InstanceCountIncreaseDelayMinutes)
			})...)

		problems = append(problems, validateService(path+".services.dynamoDb", g.Services.DynamoDB,
			func(p string, o DynamoDBOptions) []string {
				return checkLookback(p+".capacityLookbackMinutes", o.CapacityLookbackMinutes)
			})...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateService[T any](path string, svc *AwsServiceAlarms[T], check func(string, T) []string) []string {
	if svc == nil {
		return nil
	}

	problems := check(path+".options", svc.Options)

	seen := make(map[string]bool, len(svc.Resources))
	for i, r := range svc.Resources {
		rpath := fmt.Sprintf("%s.resources[%d]", path, i)
		switch {
		case r.Name == "":
			problems = append(problems, rpath+".name is required")
		case seen[r.Name]:
			problems = append(problems, fmt.Sprintf("%s.name %q is listed more than once", rpath, r.Name))
		}
		seen[r.Name] = true

		if r.Options != nil {
			problems = append(problems, check(rpath+".options", *r.Options)...)
		}
	}
	return problems
}

func checkLookback(path string, minutes Optional[int]) []string {
	m, ok := minutes.Get()
	if !ok {
		return nil
	}
	if err := CheckLookback(m); err != nil {
		return []string{fmt.Sprintf("%s %v", path, err)}
	}
	return nil
}

const (
	// MaxLookbackMinutes is CloudWatch's 455-day metric retention.
	MaxLookbackMinutes = 455 * 24 * 60

	fiveMinuteDataAfterMinutes = 15 * 24 * 60
	hourlyDataAfterMinutes     = 63 * 24 * 60
)

// CheckLookback reports whether a window of minutes can be queried as one
// CloudWatch period of minutes*60 seconds. Windows reaching past 15 days
// need a period that is a multiple of 5 minutes, past 63 days a multiple
// of an hour.
func CheckLookback(minutes int) error {
	switch {
	case minutes <= 0:
		return fmt.Errorf("must be positive, got %d", minutes)
	case minutes > MaxLookbackMinutes:
		return fmt.Errorf("must be at most %d (455 days), got %d", MaxLookbackMinutes, minutes)
	case minutes > hourlyDataAfterMinutes && minutes%60 != 0:
		return fmt.Errorf("over 63 days must be a multiple of 60, got %d", minutes)
	case minutes > fiveMinuteDataAfterMinutes && minutes%5 != 0:
		return fmt.Errorf("over 15 days must be a multiple of 5, got %d", minutes)
	}
	return nil
}
