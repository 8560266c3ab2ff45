package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/app"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/deploy"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/env"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/telemetry"
)

func main() {
	startTime := time.Now()
	level := env.Get("LOG_LEVEL", slog.LevelInfo, env.ParseLogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("starting cloudwatch alarm generator")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("cannot load aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	deployer, err := deploy.NewDeployer(awsCfg, cfg, logger)
	if err != nil {
		logger.Error("cannot create deployer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	a := app.New(awsCfg, cfg, deployer, logger)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Options{Lambda: true})
	if err != nil {
		logger.Error("cannot initialize tracer provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("cannot shutdown tracer provider", slog.String("error", err.Error()))
		}
	}()

	logger.Info(
		"started cloudwatch alarm generator",
		slog.String("target", string(cfg.DeployTarget)),
		slog.String("region", cfg.AWSRegion),
		slog.Int("workers", cfg.Workers),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	handle := func(ctx context.Context, event lambdaevents.CloudWatchEvent) error {
		err := a.Handler.HandleRequest(ctx, event)
		if cfg.MetricsTextfile != "" {
			if werr := a.Recorder.WriteTextfile(cfg.MetricsTextfile); werr != nil {
				logger.Error("cannot write metrics", slog.String("error", werr.Error()))
			}
		}
		return err
	}

	lambda.Start(
		otellambda.InstrumentHandler(
			handle,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}
