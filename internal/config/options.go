package config

// Options is implemented by every per-kind options record.
// Merge returns a copy where each field unset on the receiver is taken
// from defaults.
type Options[T any] interface {
	Merge(defaults T) T
}

// AutoScalingOptions configures alarms for Auto Scaling groups.
type AutoScalingOptions struct {
	// InstanceCountIncreaseDelayMinutes enables a lookback over
	// GroupDesiredCapacity so a recent scale-out does not raise the
	// in-service threshold before new instances are healthy.
	InstanceCountIncreaseDelayMinutes Optional[int] `yaml:"instanceCountIncreaseDelayMinutes"`
}

func (o AutoScalingOptions) Merge(defaults AutoScalingOptions) AutoScalingOptions {
	return AutoScalingOptions{
		InstanceCountIncreaseDelayMinutes: o.InstanceCountIncreaseDelayMinutes.Or(defaults.InstanceCountIncreaseDelayMinutes),
	}
}

// DynamoDBOptions configures alarms for DynamoDB tables.
type DynamoDBOptions struct {
	// CapacityLookbackMinutes uses the minimum ProvisionedReadCapacityUnits
	// over the window instead of the current provisioned value.
	CapacityLookbackMinutes Optional[int] `yaml:"capacityLookbackMinutes"`
}

func (o DynamoDBOptions) Merge(defaults DynamoDBOptions) DynamoDBOptions {
	return DynamoDBOptions{
		CapacityLookbackMinutes: o.CapacityLookbackMinutes.Or(defaults.CapacityLookbackMinutes),
	}
}

// EffectiveOptions merges a resource's override onto the service defaults.
func EffectiveOptions[T Options[T]](resource ResourceThresholds[T], service T) T {
	if resource.Options == nil {
		return service
	}
	return (*resource.Options).Merge(service)
}
