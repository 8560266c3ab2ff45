// Package config holds the alerting-group model loaded from YAML and the
// runtime settings read from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/env"
)

type DeployTarget string

const (
	TargetCloudFormation DeployTarget = "cloudformation"
	TargetFile           DeployTarget = "file"
)

const (
	DefaultStackPrefix            = "Watchman"
	DefaultWorkers                = 4
	DefaultMetricQueriesPerSecond = 10.0
	DefaultRunTimeout             = 10 * time.Minute
	DefaultDeployWaitTimeout      = 30 * time.Minute
)

type Config struct {
	AWSRegion       string
	AlarmConfigPath string
	StackPrefix     string
	DeployTarget    DeployTarget

	// TemplateBucket receives templates too large to pass inline.
	TemplateBucket string
	// OutputDir is where the file target writes rendered templates.
	OutputDir string

	Workers                int
	MetricQueriesPerSecond float64
	RunTimeout             time.Duration
	// DeployWaitTimeout bounds each wait for a stack operation to finish.
	DeployWaitTimeout time.Duration

	EventBusName    string
	ReportTopicARN  string
	MetricsTextfile string
}

func Load() (*Config, error) {
	cfg := &Config{}

	region, err := env.GetRequired("AWS_REGION", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.AWSRegion = region

	path, err := env.GetRequired("ALARM_CONFIG_PATH", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.AlarmConfigPath = path

	cfg.StackPrefix = env.Get("STACK_PREFIX", DefaultStackPrefix, env.ParseNonEmptyString)
	cfg.Workers = env.Get("WORKERS", DefaultWorkers, env.ParsePositiveInt)
	cfg.MetricQueriesPerSecond = env.Get("METRIC_QUERIES_PER_SECOND", DefaultMetricQueriesPerSecond, env.ParsePositiveFloat)
	cfg.RunTimeout = env.Get("RUN_TIMEOUT", DefaultRunTimeout, env.ParseDuration)
	cfg.DeployWaitTimeout = env.Get("DEPLOY_WAIT_TIMEOUT", DefaultDeployWaitTimeout, env.ParsePositiveDuration)
	cfg.TemplateBucket = env.Get("TEMPLATE_BUCKET", "", env.ParseString)
	cfg.EventBusName = env.Get("EVENT_BUS_NAME", "", env.ParseString)
	cfg.ReportTopicARN = env.Get("REPORT_TOPIC_ARN", "", env.ParseString)
	cfg.MetricsTextfile = env.Get("METRICS_TEXTFILE", "", env.ParseString)

	target := env.Get("DEPLOY_TARGET", string(TargetCloudFormation), env.ParseNonEmptyString)

	switch DeployTarget(target) {
	case TargetCloudFormation:
		cfg.DeployTarget = TargetCloudFormation
	case TargetFile:
		dir, err := env.GetRequired("OUTPUT_DIR", env.ParseNonEmptyString)
		if err != nil {
			return nil, err
		}
		cfg.DeployTarget = TargetFile
		cfg.OutputDir = dir
	default:
		return nil, fmt.Errorf("invalid deploy target: %s", target)
	}

	return cfg, nil
}
