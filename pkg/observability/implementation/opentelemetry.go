package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/chnu/award-monitoring-system/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type otelTracer struct {
	tracer trace.Tracer
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) SetAttributes(fields ...observability.Field) {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, toAttribute(f))
	}
	s.span.SetAttributes(attrs...)
}

func toAttribute(f observability.Field) attribute.KeyValue {
	switch v := f.Value.(type) {
	case string:
		return attribute.String(f.Key, v)
	case int:
		return attribute.Int(f.Key, v)
	case int64:
		return attribute.Int64(f.Key, v)
	case bool:
		return attribute.Bool(f.Key, v)
	case float64:
		return attribute.Float64(f.Key, v)
	case time.Duration:
		return attribute.String(f.Key, v.String())
	case error:
		return attribute.String(f.Key, v.Error())
	default:
		return attribute.String(f.Key, fmt.Sprint(v))
	}
}

func (t otelTracer) Start(
	ctx context.Context,
	name string,
) (context.Context, observability.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span}
}

// NewTracer adapts any OpenTelemetry provider, e.g. one backed by a span
// recorder in tests.
func NewTracer(tp trace.TracerProvider, name string) observability.Tracer {
	return otelTracer{tracer: tp.Tracer(name)}
}

func NewNoopTracer() observability.Tracer {
	return NewTracer(noop.NewTracerProvider(), "noop")
}

type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
}

func NewOtelTracer(
	ctx context.Context,
	cfg TracerConfig,
) (observability.Tracer, func(ctx context.Context) error, error) {
	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
			attribute.String("application", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	return NewTracer(tp, cfg.ServiceName),
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return tp.Shutdown(ctx)
		},
		nil
}
