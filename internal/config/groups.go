package config

// AlarmConfig is the document shape of an alarm configuration file.
type AlarmConfig struct {
	AlertingGroups []AlertingGroup `yaml:"alertingGroups"`
}

// AlertingGroup is a named set of resources whose alarms are deployed
// together as one stack and notify the same targets.
type AlertingGroup struct {
	Name            string                `yaml:"name"`
	AlarmNameSuffix string                `yaml:"alarmNameSuffix,omitempty"`
	Targets         []AlertTarget         `yaml:"targets,omitempty"`
	Services        AlertingGroupServices `yaml:"services"`
}

// AlertTarget is a notification endpoint. Exactly one field is set.
type AlertTarget struct {
	Email string `yaml:"email,omitempty"`
	URL   string `yaml:"url,omitempty"`
}

// AlertingGroupServices has one slot per supported resource kind.
type AlertingGroupServices struct {
	AutoScaling *AwsServiceAlarms[AutoScalingOptions] `yaml:"autoScaling,omitempty"`
	DynamoDB    *AwsServiceAlarms[DynamoDBOptions]    `yaml:"dynamoDb,omitempty"`
}

// AwsServiceAlarms lists the resources of one kind and the service-level
// defaults applied to each of them.
type AwsServiceAlarms[T any] struct {
	Resources []ResourceThresholds[T] `yaml:"resources"`
	Options   T                       `yaml:"options"`
}

// ResourceThresholds names one resource and optionally overrides the
// service-level options for it.
type ResourceThresholds[T any] struct {
	Name    string `yaml:"name"`
	Options *T     `yaml:"options,omitempty"`
}
