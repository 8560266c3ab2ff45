package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
alertingGroups:
  - name: test
    alarmNameSuffix: prod
    targets:
      - email: ops@example.com
      - url: https://hooks.example.com/alarms
    services:
      autoScaling:
        options:
          instanceCountIncreaseDelayMinutes: 100
        resources:
          - name: group-delay-20
            options:
              instanceCountIncreaseDelayMinutes: 20
          - name: group-delay-100
      dynamoDb:
        resources:
          - name: orders
`

func TestOptional_ZeroIsUnset(t *testing.T) {
	var o Optional[int]
	_, ok := o.Get()
	assert.False(t, ok)

	zero := Some(0)
	v, ok := zero.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestOptional_Or(t *testing.T) {
	assert.Equal(t, Some(20), Some(20).Or(Some(100)))
	assert.Equal(t, Some(100), None[int]().Or(Some(100)))
	assert.False(t, None[int]().Or(None[int]()).IsSet())
	assert.Equal(t, Some(0), Some(0).Or(Some(100)), "a set zero must win over the fallback")
}

func TestEffectiveOptions(t *testing.T) {
	service := AutoScalingOptions{InstanceCountIncreaseDelayMinutes: Some(100)}

	override := ResourceThresholds[AutoScalingOptions]{
		Name:    "a",
		Options: &AutoScalingOptions{InstanceCountIncreaseDelayMinutes: Some(20)},
	}
	assert.Equal(t, Some(20), EffectiveOptions(override, service).InstanceCountIncreaseDelayMinutes)

	inherit := ResourceThresholds[AutoScalingOptions]{Name: "b"}
	assert.Equal(t, Some(100), EffectiveOptions(inherit, service).InstanceCountIncreaseDelayMinutes)

	emptyOverride := ResourceThresholds[AutoScalingOptions]{Name: "c", Options: &AutoScalingOptions{}}
	assert.Equal(t, Some(100), EffectiveOptions(emptyOverride, service).InstanceCountIncreaseDelayMinutes)

	none := EffectiveOptions(ResourceThresholds[AutoScalingOptions]{Name: "d"}, AutoScalingOptions{})
	assert.False(t, none.InstanceCountIncreaseDelayMinutes.IsSet())
}

func TestParse(t *testing.T) {
	groups, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "test", g.Name)
	assert.Equal(t, "prod", g.AlarmNameSuffix)
	assert.Equal(t, []AlertTarget{{Email: "ops@example.com"}, {URL: "https://hooks.example.com/alarms"}}, g.Targets)

	require.NotNil(t, g.Services.AutoScaling)
	asg := g.Services.AutoScaling
	assert.Equal(t, Some(100), asg.Options.InstanceCountIncreaseDelayMinutes)
	require.Len(t, asg.Resources, 2)
	require.NotNil(t, asg.Resources[0].Options)
	assert.Equal(t, Some(20), asg.Resources[0].Options.InstanceCountIncreaseDelayMinutes)
	assert.Nil(t, asg.Resources[1].Options)

	require.NotNil(t, g.Services.DynamoDB)
	assert.False(t, g.Services.DynamoDB.Options.CapacityLookbackMinutes.IsSet())
}

func TestParse_NullLeavesOptionUnset(t *testing.T) {
	groups, err := Parse([]byte(`
alertingGroups:
  - name: g
    services:
      autoScaling:
        options:
          instanceCountIncreaseDelayMinutes: null
        resources:
          - name: a
`))
	require.NoError(t, err)
	assert.False(t, groups[0].Services.AutoScaling.Options.InstanceCountIncreaseDelayMinutes.IsSet())
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte(`
alertingGroups:
  - name: g
    services:
      autoScaling:
        options:
          instanceCountDelay: 5
`))
	require.Error(t, err)
}

func TestLoadGroups_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "alertingGroups:\n  - name: second\n")
	writeFile(t, filepath.Join(dir, "a.yml"), "alertingGroups:\n  - name: first\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	groups, err := LoadGroups(dir)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "first", groups[0].Name)
	assert.Equal(t, "second", groups[1].Name)
}

func TestLoadGroups_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.yaml")
	writeFile(t, path, sampleConfig)

	groups, err := LoadGroups(path)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestLoadGroups_MissingPath(t *testing.T) {
	_, err := LoadGroups(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read alarm config")
}

func TestLoadGroups_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "alertingGroups: [")

	_, err := LoadGroups(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot parse alarm config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		groups  []AlertingGroup
		problem string
	}{
		{
			name:    "no groups",
			groups:  nil,
			problem: "no alerting groups configured",
		},
		{
			name:    "missing name",
			groups:  []AlertingGroup{{}},
			problem: "alertingGroups[0].name is required",
		},
		{
			name:    "invalid name",
			groups:  []AlertingGroup{{Name: "my group"}},
			problem: "must start with a letter",
		},
		{
			name:    "duplicate name",
			groups:  []AlertingGroup{{Name: "a"}, {Name: "a"}},
			problem: `alertingGroups[1].name "a" is not unique`,
		},
		{
			name:    "target with both fields",
			groups:  []AlertingGroup{{Name: "a", Targets: []AlertTarget{{Email: "x@y.z", URL: "https://x"}}}},
			problem: "only one of email or url",
		},
		{
			name:    "plain http target",
			groups:  []AlertingGroup{{Name: "a", Targets: []AlertTarget{{URL: "http://x"}}}},
			problem: "must use https",
		},
		{
			name: "non-positive lookback",
			groups: []AlertingGroup{{Name: "a", Services: AlertingGroupServices{
				AutoScaling: &AwsServiceAlarms[AutoScalingOptions]{
					Resources: []ResourceThresholds[AutoScalingOptions]{{
						Name:    "asg",
						Options: &AutoScalingOptions{InstanceCountIncreaseDelayMinutes: Some(0)},
					}},
				},
			}}},
			problem: "instanceCountIncreaseDelayMinutes must be positive",
		},
		{
			name: "lookback beyond metric retention",
			groups: []AlertingGroup{{Name: "a", Services: AlertingGroupServices{
				AutoScaling: &AwsServiceAlarms[AutoScalingOptions]{
					Options: AutoScalingOptions{InstanceCountIncreaseDelayMinutes: Some(1073741825)},
				},
			}}},
			problem: "options.instanceCountIncreaseDelayMinutes must be at most 655200",
		},
		{
			name: "long lookback with unsupported period",
			groups: []AlertingGroup{{Name: "a", Services: AlertingGroupServices{
				DynamoDB: &AwsServiceAlarms[DynamoDBOptions]{
					Resources: []ResourceThresholds[DynamoDBOptions]{{
						Name:    "t",
						Options: &DynamoDBOptions{CapacityLookbackMinutes: Some(30*24*60 + 1)},
					}},
				},
			}}},
			problem: "capacityLookbackMinutes over 15 days must be a multiple of 5",
		},
		{
			name: "duplicate resource",
			groups: []AlertingGroup{{Name: "a", Services: AlertingGroupServices{
				DynamoDB: &AwsServiceAlarms[DynamoDBOptions]{
					Resources: []ResourceThresholds[DynamoDBOptions]{{Name: "t"}, {Name: "t"}},
				},
			}}},
			problem: "is listed more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.groups)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	groups, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	assert.NoError(t, Validate(groups))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestCheckLookback(t *testing.T) {
	tests := []struct {
		minutes int
		wantErr string
	}{
		{minutes: 1},
		{minutes: 20},
		{minutes: 15 * 24 * 60},
		{minutes: 15*24*60 + 1, wantErr: "multiple of 5"},
		{minutes: 15*24*60 + 5},
		{minutes: 63*24*60 + 5, wantErr: "multiple of 60"},
		{minutes: 63*24*60 + 60},
		{minutes: MaxLookbackMinutes},
		{minutes: MaxLookbackMinutes + 60, wantErr: "at most"},
		{minutes: 0, wantErr: "must be positive"},
		{minutes: -5, wantErr: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.minutes), func(t *testing.T) {
			err := CheckLookback(tt.minutes)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
