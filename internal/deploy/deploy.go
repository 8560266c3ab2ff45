// Package deploy applies composed alarm stacks to a target.
package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/stack"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/deploy")

// Deployer applies one stack. A stack that already matches its target is
// not an error.
type Deployer interface {
	Deploy(ctx context.Context, s *stack.Stack) error
}

// NewDeployer creates a Deployer implementation based on the configured deploy target.
// Supported targets: cloudformation, file.
func NewDeployer(awsCfg aws.Config, cfg *config.Config, logger *slog.Logger) (Deployer, error) {
	switch cfg.DeployTarget {
	case config.TargetCloudFormation:
		d := NewCloudFormationDeployer(
			cloudformation.NewFromConfig(awsCfg),
			s3.NewFromConfig(awsCfg),
			cfg.TemplateBucket,
			logger,
		)
		if cfg.DeployWaitTimeout > 0 {
			d.waitTimeout = cfg.DeployWaitTimeout
		}
		return d, nil

	case config.TargetFile:
		return NewFileDeployer(cfg.OutputDir, logger), nil

	default:
		return nil, fmt.Errorf("unknown deploy target: %s", cfg.DeployTarget)
	}
}
