package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/app"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/deploy"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/env"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/telemetry"
)

var (
	configPath      string
	metricsTextfile string
	outDir          string
)

var rootCmd = &cobra.Command{
	Use:   "alarmgen",
	Short: "Generate and deploy CloudWatch alarm stacks from alerting groups",
	Long: `alarmgen reads alerting groups from YAML, resolves thresholds from the
live state and metric history of each resource, and deploys one
CloudFormation stack of alarms per group.

Runtime settings come from the environment (AWS_REGION, ALARM_CONFIG_PATH,
STACK_PREFIX, WORKERS, RUN_TIMEOUT, ...).

Example:
  alarmgen validate --config alarms.yaml
  alarmgen render --config alarms.yaml --out ./templates
  alarmgen run --config alarms.yaml`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve thresholds and deploy every alerting group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return execute(cmd.Context(), nil)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Resolve thresholds and write one template per alerting group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return execute(cmd.Context(), renderOverrides(outDir))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the alarm configuration without contacting AWS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv("ALARM_CONFIG_PATH")
		}
		if path == "" {
			return fmt.Errorf("no alarm configuration given: set --config or ALARM_CONFIG_PATH")
		}

		groups, err := config.LoadGroups(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d alerting groups valid\n", len(groups))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "alarm configuration file or directory (overrides ALARM_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write run metrics in Prometheus text format to this path")

	renderCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for rendered templates")
	_ = renderCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(runCmd, renderCmd, validateCmd)
}

// renderOverrides switches the deploy target to the file deployer.
func renderOverrides(dir string) map[string]string {
	return map[string]string{
		"DEPLOY_TARGET": string(config.TargetFile),
		"OUTPUT_DIR":    dir,
	}
}

// loadConfig applies the command-line overrides on top of the environment
// and loads the runtime configuration.
func loadConfig(overrides map[string]string) (*config.Config, error) {
	if configPath != "" {
		overrides = maps.Clone(overrides)
		if overrides == nil {
			overrides = make(map[string]string, 1)
		}
		overrides["ALARM_CONFIG_PATH"] = configPath
	}

	for key, value := range overrides {
		if err := os.Setenv(key, value); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	if metricsTextfile != "" {
		cfg.MetricsTextfile = metricsTextfile
	}

	return cfg, nil
}

func newLogger() *slog.Logger {
	level := env.Get("LOG_LEVEL", slog.LevelInfo, env.ParseLogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func execute(parent context.Context, overrides map[string]string) error {
	logger := newLogger()

	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(initCtx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("cannot load aws config: %w", err)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	tp, err := telemetry.NewTracerProvider(initCtx, telemetry.Options{ServiceName: "alarmgen"})
	if err != nil {
		return fmt.Errorf("cannot initialize tracer provider: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("cannot shutdown tracer provider", slog.String("error", err.Error()))
		}
	}()

	deployer, err := deploy.NewDeployer(awsCfg, cfg, logger)
	if err != nil {
		return err
	}

	a := app.New(awsCfg, cfg, deployer, logger)

	_, runErr := a.Handler.Execute(ctx)

	if cfg.MetricsTextfile != "" {
		if err := a.Recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("cannot write metrics", slog.String("error", err.Error()))
		}
	}

	return runErr
}
