package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"slotscan/internal/fault"
	"slotscan/internal/version"
)

// Tracer is the shared tracer for scan phase spans. It picks up whatever
// provider SetupTracing installs; without one it stays a no-op.
var Tracer = otel.Tracer("slotscan")

// SetupTracing installs an OTLP gRPC exporter when the environment asks for
// one (OTEL_EXPORTER_OTLP_ENDPOINT or the traces-specific variant). The
// returned shutdown flushes pending spans.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" &&
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeInternal, "cannot create trace exporter")
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "slotscan"),
			attribute.String("service.version", version.Version),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
