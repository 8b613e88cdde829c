// Package telemetry sets up OpenTelemetry tracing for the gateway.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

type options struct {
	writer      io.Writer
	prettyPrint bool
	syncExport  bool
}

// Option configures InitTracer.
type Option func(*options)

// WithWriter sends spans to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithPrettyPrint indents exported spans.
func WithPrettyPrint() Option {
	return func(o *options) { o.prettyPrint = true }
}

// WithSyncExport exports each span as it ends. Tests use it to read spans
// without waiting for the batcher.
func WithSyncExport() Option {
	return func(o *options) { o.syncExport = true }
}

// InitTracer installs a global tracer provider that exports spans as JSON.
func InitTracer(serviceName, version string, logger *slog.Logger, opts ...Option) (ShutdownFunc, error) {
	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(o.writer)}
	if o.prettyPrint {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}

	spanProcessor := sdktrace.WithBatcher(exporter)
	if o.syncExport {
		spanProcessor = sdktrace.WithSyncer(exporter)
	}
	tp := sdktrace.NewTracerProvider(
		spanProcessor,
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized",
		slog.String("service", serviceName),
		slog.String("version", version))

	return tp.Shutdown, nil
}
