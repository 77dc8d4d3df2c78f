package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes set on every cart operation.
const (
	KeyProductID = attribute.Key("cart.product_id")
	KeyOutcome   = attribute.Key("cart.outcome")
	KeyEntries   = attribute.Key("cart.entries")
)

// Config holds OpenTelemetry tracing configuration. OTLPEndpoint is an
// OTLP/HTTP host:port.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
	Enabled        bool
}

// DefaultConfig returns a disabled configuration for serviceName.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4318",
		SampleRate:     1.0,
	}
}

// InitTracer installs the global tracer provider. With cfg.Enabled spans
// are batched to the OTLP endpoint; extra processors receive them either
// way. With neither, nothing is installed and shutdown is a no-op.
func InitTracer(ctx context.Context, cfg Config, processors ...sdktrace.SpanProcessor) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled && len(processors) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sampler(cfg.SampleRate))}
	if cfg.Enabled {
		exportOpts, err := exportOptions(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, exportOpts...)
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func exportOptions(ctx context.Context, cfg Config) ([]sdktrace.TracerProviderOption, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return []sdktrace.TracerProviderOption{sdktrace.WithBatcher(exporter), sdktrace.WithResource(res)}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// SetOutcome tags span with how a cart operation ended. A non-nil err is
// recorded and marks the span as errored.
func SetOutcome(span trace.Span, outcome string, err error) {
	span.SetAttributes(KeyOutcome.String(outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
