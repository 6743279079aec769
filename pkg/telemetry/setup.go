package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config selects how junction handler spans are exported.
type Config struct {
	ServiceName string
	Enabled     bool
	// InstanceID tells replicas apart; a random id is used when empty.
	InstanceID string
	// Writer receives exported spans. Defaults to stdout, pretty printed.
	Writer io.Writer
}

// InitTracer installs a stdout tracer provider tagged with the service name and
// replica instance. When tracing is disabled the global no-op provider stays in
// place and the returned shutdown does nothing.
func InitTracer(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if cfg.Writer != nil {
		opts = []stdouttrace.Option{stdouttrace.WithWriter(cfg.Writer)}
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return noop, fmt.Errorf("create trace exporter: %w", err)
	}

	instance := cfg.InstanceID
	if instance == "" {
		instance = uuid.NewString()
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceInstanceID(instance),
		semconv.ProcessPID(os.Getpid()),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
