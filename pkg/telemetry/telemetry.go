// Package telemetry wires OpenTelemetry tracing for the analysis pipeline.
//
// Tracing is off unless OTEL_ENABLED=true. When off, Init installs nothing and
// every span started through this package is a no-op.
//
//	OTEL_ENABLED                  enable tracing (default false)
//	OTEL_SERVICE_NAME             service name (default fardiff)
//	OTEL_SERVICE_VERSION          service version
//	OTEL_EXPORTER_OTLP_ENDPOINT   collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL   grpc or http/protobuf (default grpc)
//	OTEL_EXPORTER_OTLP_HEADERS    k=v pairs, e.g. Authorization=Bearer xxx
//	OTEL_EXPORTER_OTLP_INSECURE   plaintext transport
//	OTEL_TRACES_SAMPLER           sampler name (default always_on)
//	OTEL_TRACES_SAMPLER_ARG       sampler ratio
//	OTEL_RESOURCE_ATTRIBUTES      extra resource attributes
package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used for pipeline spans.
const InstrumentationName = "github.com/fardiff"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

var enabled atomic.Bool

func noopShutdown(context.Context) error { return nil }

// Enabled reports whether Init installed a real tracer provider.
func Enabled() bool {
	return enabled.Load()
}

// Init installs a global TracerProvider built from cfg. A nil cfg is read
// from the environment. version overrides the configured service version
// when cfg.ServiceVersion was left at its default.
func Init(ctx context.Context, cfg *Config, version string) (ShutdownFunc, error) {
	if cfg == nil {
		cfg = LoadFromEnv()
	}
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	if version != "" && cfg.ServiceVersion == "dev" {
		cfg.ServiceVersion = version
	}

	res, err := newResource(cfg)
	if err != nil {
		return noopShutdown, err
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(newSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	enabled.Store(true)

	return func(ctx context.Context) error {
		enabled.Store(false)
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer returns the pipeline tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span named name carrying attrs.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
