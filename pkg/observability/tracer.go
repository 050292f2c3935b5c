package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tactus-ai/tactus"

// Tracer returns the shared tracer for execution spans. Span export is
// whatever the host process configured on the global provider; with none
// configured the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// SetupPrometheus installs a Prometheus-backed meter provider as the otel
// global and wires the OTelMetrics recorder onto it. The collector
// registers against the default prometheus registry, which the HTTP layer
// exposes at /metrics.
func SetupPrometheus(serviceName string) (*OTelMetrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetMeterProvider(provider)

	metrics, err := NewOTelMetrics(provider.Meter(tracerName))
	if err != nil {
		return nil, err
	}
	SetGlobalMetrics(metrics)
	return metrics, nil
}
