package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/stack"
)

// FileDeployer writes each stack's template to <dir>/<stack>.json instead
// of deploying it.
type FileDeployer struct {
	dir    string
	logger *slog.Logger
}

func NewFileDeployer(dir string, logger *slog.Logger) *FileDeployer {
	return &FileDeployer{
		dir:    dir,
		logger: logger,
	}
}

func (d *FileDeployer) Deploy(ctx context.Context, s *stack.Stack) error {
	ctx, span := tracer.Start(ctx, "deploy.file")
	defer span.End()
	span.SetAttributes(attribute.String("stack.name", s.Name))

	body, err := s.Template()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %q: %w", d.dir, err)
	}

	path := filepath.Join(d.dir, s.Name+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("cannot write template %q: %w", path, err)
	}

	d.logger.InfoContext(
		ctx,
		"template written",
		slog.String("stack", s.Name),
		slog.String("path", path),
		slog.Int("alarms", len(s.Alarms)),
	)

	return nil
}
