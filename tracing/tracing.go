// Package tracing installs the OpenTelemetry tracer provider.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"policy_workbench/config"
)

const defaultEndpoint = "localhost:4318"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs an OTLP/HTTP tracer provider when tracing is enabled. Tracing is off
// by default; a disabled or failed setup returns a no-op shutdown and leaves the
// global no-op provider in place.
func Init(ctx context.Context, cfg config.TracingConfig, logger *zap.Logger) Shutdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("tracing disabled (set OTEL_ENABLED=true to enable)")
		return noop
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create OTLP exporter, tracing disabled", zap.Error(err))
		return noop
	}

	service := cfg.ServiceName
	if service == "" {
		service = "policy-workbench"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)
	otel.SetTracerProvider(tp)
	logger.Info("tracer initialized", zap.String("endpoint", endpoint), zap.String("service", service))
	return tp.Shutdown
}
