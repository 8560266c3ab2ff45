// Package app wires AWS clients and run components from the runtime
// configuration.
package app

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"golang.org/x/time/rate"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/clock"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/deploy"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/handler"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metric"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/metrics"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/notify"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/pipeline"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/publish"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

type App struct {
	Handler  *handler.RunHandler
	Recorder *metrics.Recorder
}

// New builds a run handler. Outcome events and failure summaries are only
// wired when EVENT_BUS_NAME and REPORT_TOPIC_ARN are set.
func New(awsCfg aws.Config, cfg *config.Config, deployer deploy.Deployer, logger *slog.Logger) *App {
	limiter := rate.NewLimiter(rate.Limit(cfg.MetricQueriesPerSecond), 1)
	querier := metric.NewCloudWatchQuerier(cloudwatch.NewFromConfig(awsCfg), limiter)
	resolver := threshold.NewResolver(clock.System{}, querier, logger)

	locators := pipeline.Locators{
		AutoScaling: resource.NewAutoScalingLocator(autoscaling.NewFromConfig(awsCfg)),
		DynamoDB:    resource.NewDynamoDBLocator(dynamodb.NewFromConfig(awsCfg)),
	}

	recorder := metrics.NewRecorder()

	orchestrator := pipeline.New(
		locators,
		resolver,
		deployer,
		pipeline.Settings{StackPrefix: cfg.StackPrefix, Workers: cfg.Workers},
		recorder,
		logger,
	)

	var publisher handler.Publisher
	if cfg.EventBusName != "" {
		publisher = publish.NewPublisher(eventbridge.NewFromConfig(awsCfg), cfg.EventBusName)
	}

	var notifier handler.Notifier
	if cfg.ReportTopicARN != "" {
		notifier = notify.NewSNS(sns.NewFromConfig(awsCfg), cfg.ReportTopicARN)
	}

	loadGroups := func() ([]config.AlertingGroup, error) {
		return config.LoadGroups(cfg.AlarmConfigPath)
	}

	return &App{
		Handler:  handler.NewRunHandler(loadGroups, orchestrator, publisher, notifier, clock.System{}, cfg.RunTimeout, logger),
		Recorder: recorder,
	}
}
