// Package telemetry configures OpenTelemetry tracing.
//
// Tracing is disabled unless an OTLP endpoint is given; the spans started by
// other packages then go to the global no-op provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "rulesdoctor"

// ShutdownFunc flushes pending spans and releases exporter resources.
type ShutdownFunc func(context.Context) error

// ErrEmptyEndpoint is returned by [NewExporter] when no endpoint is given.
var ErrEmptyEndpoint = errors.New("empty OTLP endpoint")

// Setup installs a global tracer provider that exports spans to the OTLP/gRPC
// endpoint. With an empty endpoint it does nothing and returns a no-op
// [ShutdownFunc].
func Setup(ctx context.Context, endpoint, version string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := NewExporter(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	tp := NewTracerProvider(version, sdktrace.WithBatcher(exp))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// NewExporter creates an OTLP/gRPC span exporter. Endpoints given as
// host:port use an insecure connection; full URLs are passed through.
func NewExporter(ctx context.Context, endpoint string) (*otlptrace.Exporter, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	var opts []otlptracegrpc.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracegrpc.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	}

	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	return exp, nil
}

// NewTracerProvider creates a tracer provider describing this service.
func NewTracerProvider(version string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)

	return sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}, opts...)...)
}
