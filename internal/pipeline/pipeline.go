// Package pipeline runs alarm generation for every alerting group:
// locate resources, resolve thresholds, build alarms, compose and deploy
// one stack per group.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/deploy"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/resource"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/stack"
	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/threshold"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/pipeline")

const (
	DefaultWorkers            = 4
	DefaultResolveConcurrency = 8
)

// ThresholdResolver resolves one resource's threshold.
type ThresholdResolver interface {
	Resolve(ctx context.Context, req threshold.Request) (*threshold.Resolved, error)
}

// Recorder receives per-run counters.
type Recorder interface {
	ObserveGroup(status string, elapsed time.Duration)
	AddAlarms(kind string, n int)
	IncThresholdFallback(kind string)
}

// Locators holds one locator per supported kind.
type Locators struct {
	AutoScaling resource.Locator
	DynamoDB    resource.Locator
}

type Settings struct {
	StackPrefix string
	// Workers bounds how many groups run at once.
	Workers int
	// ResolveConcurrency bounds threshold lookups within one service.
	ResolveConcurrency int
}

type Orchestrator struct {
	locators Locators
	resolver ThresholdResolver
	deployer deploy.Deployer
	settings Settings
	recorder Recorder
	logger   *slog.Logger
}

func New(
	locators Locators,
	resolver ThresholdResolver,
	deployer deploy.Deployer,
	settings Settings,
	recorder Recorder,
	logger *slog.Logger,
) *Orchestrator {
	if settings.Workers <= 0 {
		settings.Workers = DefaultWorkers
	}
	if settings.ResolveConcurrency <= 0 {
		settings.ResolveConcurrency = DefaultResolveConcurrency
	}

	return &Orchestrator{
		locators: locators,
		resolver: resolver,
		deployer: deployer,
		settings: settings,
		recorder: recorder,
		logger:   logger,
	}
}

// Run processes every group and returns once all of them are terminal.
// The error is a *config.ValidationError when nothing was attempted, or a
// *RunError naming every group that failed or was not attempted.
func (o *Orchestrator) Run(ctx context.Context, groups []config.AlertingGroup) (*Report, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.Int("pipeline.groups", len(groups)))

	if err := config.Validate(groups); err != nil {
		return nil, err
	}

	report := &Report{Groups: make([]GroupResult, len(groups))}

	var g errgroup.Group
	g.SetLimit(o.settings.Workers)

	for i, group := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Groups[i] = GroupResult{Group: group.Name, State: StateNotAttempted, Err: err}
			} else {
				report.Groups[i] = o.runGroup(ctx, group)
			}
			o.recorder.ObserveGroup(string(report.Groups[i].State), report.Groups[i].Duration)
			return nil
		})
	}
	_ = g.Wait()

	if err := report.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	return report, nil
}

func (o *Orchestrator) runGroup(ctx context.Context, group config.AlertingGroup) (result GroupResult) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "pipeline.group")
	defer span.End()
	span.SetAttributes(attribute.String("group.name", group.Name))

	result = GroupResult{Group: group.Name, State: StatePending}
	defer func() {
		result.Duration = time.Since(start)
		span.SetAttributes(attribute.String("group.state", string(result.State)))
	}()

	fail := func(err error) GroupResult {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.ErrorContext(
			ctx,
			"alerting group failed",
			slog.String("group", group.Name),
			slog.String("stage", string(result.State)),
			slog.String("error", err.Error()),
		)
		result.FailedIn = result.State
		result.State = StateFailed
		result.Err = err
		return result
	}

	// A panicking collaborator fails only this group.
	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	result.State = StateResolving
	services, err := o.resolve(ctx, group)
	if err != nil {
		return fail(err)
	}

	result.State = StateBuilding
	naming := alarm.Naming{Group: group.Name, Suffix: group.AlarmNameSuffix}

	var defs []alarm.Definition
	for _, svc := range services {
		built := svc.buildAll(naming)
		o.recorder.AddAlarms(svc.kind, len(built))
		defs = append(defs, built...)
	}

	s, err := stack.Compose(o.settings.StackPrefix, group, defs)
	if err != nil {
		return fail(err)
	}
	result.Stack = s.Name
	result.Alarms = len(s.Alarms)

	result.State = StateDeploying
	deployCtx, cancel := deployContext(ctx)
	defer cancel()
	if err := o.deployer.Deploy(deployCtx, s); err != nil {
		return fail(err)
	}

	result.State = StateDeployed
	o.logger.InfoContext(
		ctx,
		"alerting group deployed",
		slog.String("group", group.Name),
		slog.String("stack", s.Name),
		slog.Int("alarms", len(s.Alarms)),
	)

	return result
}

type deployDeadlineKey struct{}

// WithDeployDeadline bounds deployments started under ctx by t. Unlike a
// context deadline it still applies after ctx is cancelled.
func WithDeployDeadline(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, deployDeadlineKey{}, t)
}

// DeployDeadline returns the deadline set by WithDeployDeadline.
func DeployDeadline(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(deployDeadlineKey{}).(time.Time)
	return t, ok
}

// deployContext lets an in-flight deployment finish after the run is
// cancelled, up to the deploy deadline if one is set.
func deployContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if t, ok := DeployDeadline(ctx); ok {
		return context.WithDeadline(detached, t)
	}
	return context.WithCancel(detached)
}

// resolvedService holds one kind's thresholds until the build stage.
type resolvedService struct {
	kind       string
	build      func(alarm.Naming, *threshold.Resolved) []alarm.Definition
	thresholds []*threshold.Resolved
}

func (s resolvedService) buildAll(naming alarm.Naming) []alarm.Definition {
	var defs []alarm.Definition
	for _, r := range s.thresholds {
		defs = append(defs, s.build(naming, r)...)
	}
	return defs
}

func (o *Orchestrator) resolve(ctx context.Context, group config.AlertingGroup) ([]resolvedService, error) {
	var services []resolvedService

	if svc := group.Services.AutoScaling; svc != nil {
		rs, err := resolveService(ctx, o, alarm.AutoScaling, o.locators.AutoScaling, svc)
		if err != nil {
			return nil, err
		}
		services = append(services, rs)
	}

	if svc := group.Services.DynamoDB; svc != nil {
		rs, err := resolveService(ctx, o, alarm.DynamoDB, o.locators.DynamoDB, svc)
		if err != nil {
			return nil, err
		}
		services = append(services, rs)
	}

	return services, nil
}

func resolveService[T config.Options[T]](
	ctx context.Context,
	o *Orchestrator,
	kind alarm.Kind[T],
	locator resource.Locator,
	svc *config.AwsServiceAlarms[T],
) (resolvedService, error) {
	rs := resolvedService{kind: kind.Name, build: kind.Build}
	if len(svc.Resources) == 0 {
		return rs, nil
	}

	if locator == nil {
		return rs, fmt.Errorf("no locator configured for %s resources", kind.Name)
	}

	names := make([]string, len(svc.Resources))
	for i, r := range svc.Resources {
		names[i] = r.Name
	}

	found, err := locator.List(ctx, names)
	if err != nil {
		return rs, fmt.Errorf("cannot locate %s resources: %w", kind.Name, err)
	}

	byName := make(map[string]resource.Resource, len(found))
	for _, r := range found {
		byName[r.Name] = r
	}

	thresholds := make([]*threshold.Resolved, len(svc.Resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.ResolveConcurrency)

	for i, rt := range svc.Resources {
		res, ok := byName[rt.Name]
		if !ok {
			o.logger.WarnContext(
				ctx,
				"configured resource not found; skipping",
				slog.String("kind", kind.Name),
				slog.String("resource", rt.Name),
			)
			continue
		}

		req := kind.Request(res, config.EffectiveOptions(rt, svc.Options))
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic while resolving %q: %v", rt.Name, r)
				}
			}()

			resolved, err := o.resolver.Resolve(gctx, req)
			if err != nil {
				return err
			}
			thresholds[i] = resolved
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rs, err
	}

	for _, t := range thresholds {
		if t == nil {
			continue
		}
		if t.FellBack {
			o.recorder.IncThresholdFallback(kind.Name)
		}
		rs.thresholds = append(rs.thresholds, t)
	}

	return rs, nil
}
