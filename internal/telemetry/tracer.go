// Package telemetry configures OpenTelemetry tracing exported to AWS X-Ray.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Options selects how the tracer provider describes its process.
type Options struct {
	// ServiceName is used when not running in Lambda.
	ServiceName string
	// Lambda merges the Lambda resource detector and takes the service name
	// from AWS_LAMBDA_FUNCTION_NAME.
	Lambda bool
}

// NewTracerProvider installs a global tracer provider that sends spans to
// the X-Ray daemon over UDP and propagates X-Ray trace headers.
func NewTracerProvider(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	res, err := buildResource(ctx, opts)
	if err != nil {
		return nil, err
	}

	exp, err := xrayudp.NewSpanExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot create xray udp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exp)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(xray.Propagator{})

	return tp, nil
}

// buildResource creates a merged OTEL resource with optional Lambda detection.
func buildResource(ctx context.Context, opts Options) (*resource.Resource, error) {
	serviceName := opts.ServiceName
	if opts.Lambda {
		serviceName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	}

	customResource := resource.NewWithAttributes(
		semconv.SchemaURL,
		attribute.KeyValue{
			Key:   semconv.ServiceNameKey,
			Value: attribute.StringValue(serviceName),
		},
	)

	if !opts.Lambda {
		return customResource, nil
	}

	detector := lambdadetector.NewResourceDetector()
	lambdaResource, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot detect lambda resource: %w", err)
	}

	mergedResource, err := resource.Merge(lambdaResource, customResource)
	if err != nil {
		return nil, fmt.Errorf("cannot merge otel resources: %w", err)
	}

	return mergedResource, nil
}
