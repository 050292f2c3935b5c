// Package observability wires OpenTelemetry tracing and metrics around the
// execution hot paths: tool dispatch, LLM calls, and engine runs. Metrics
// are exported through the Prometheus exporter; tests run on the noop
// implementations.
package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics = NoopMetrics{}
	metricsMu     sync.RWMutex
)

// Metrics records execution-level measurements.
type Metrics interface {
	RecordExecution(ctx context.Context, route string, duration time.Duration, tokens int, degraded bool)
	RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error)
	RecordLLMCall(ctx context.Context, model string, duration time.Duration, tokens int, err error)
}

// SetGlobalMetrics installs the process-wide recorder.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if m == nil {
		m = NoopMetrics{}
	}
	globalMetrics = m
}

// GetMetrics returns the process-wide recorder, never nil.
func GetMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}

// OTelMetrics implements Metrics over OpenTelemetry instruments.
type OTelMetrics struct {
	executionDuration metric.Float64Histogram
	executionsTotal   metric.Int64Counter
	executionTokens   metric.Int64Counter
	degradedTotal     metric.Int64Counter

	toolDuration    metric.Float64Histogram
	toolCallsTotal  metric.Int64Counter
	toolErrorsTotal metric.Int64Counter

	llmDuration    metric.Float64Histogram
	llmTokensTotal metric.Int64Counter
	llmErrorsTotal metric.Int64Counter
}

var _ Metrics = (*OTelMetrics)(nil)

// NewOTelMetrics creates the instrument set on the given meter.
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	if m.executionDuration, err = meter.Float64Histogram("tactus_execution_duration_seconds",
		metric.WithDescription("End-to-end execution duration")); err != nil {
		return nil, err
	}
	if m.executionsTotal, err = meter.Int64Counter("tactus_executions_total",
		metric.WithDescription("Executions by route")); err != nil {
		return nil, err
	}
	if m.executionTokens, err = meter.Int64Counter("tactus_execution_tokens_total",
		metric.WithDescription("Tokens consumed by executions")); err != nil {
		return nil, err
	}
	if m.degradedTotal, err = meter.Int64Counter("tactus_executions_degraded_total",
		metric.WithDescription("Executions that ended degraded")); err != nil {
		return nil, err
	}
	if m.toolDuration, err = meter.Float64Histogram("tactus_tool_duration_seconds",
		metric.WithDescription("Tool execution duration")); err != nil {
		return nil, err
	}
	if m.toolCallsTotal, err = meter.Int64Counter("tactus_tool_calls_total",
		metric.WithDescription("Tool executions")); err != nil {
		return nil, err
	}
	if m.toolErrorsTotal, err = meter.Int64Counter("tactus_tool_errors_total",
		metric.WithDescription("Tool executions that returned an error result")); err != nil {
		return nil, err
	}
	if m.llmDuration, err = meter.Float64Histogram("tactus_llm_duration_seconds",
		metric.WithDescription("LLM call duration")); err != nil {
		return nil, err
	}
	if m.llmTokensTotal, err = meter.Int64Counter("tactus_llm_tokens_total",
		metric.WithDescription("Tokens reported by LLM calls")); err != nil {
		return nil, err
	}
	if m.llmErrorsTotal, err = meter.Int64Counter("tactus_llm_errors_total",
		metric.WithDescription("Failed LLM calls")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *OTelMetrics) RecordExecution(ctx context.Context, route string, duration time.Duration, tokens int, degraded bool) {
	attrs := metric.WithAttributes(attribute.String("route", route))
	m.executionDuration.Record(ctx, duration.Seconds(), attrs)
	m.executionsTotal.Add(ctx, 1, attrs)
	if tokens > 0 {
		m.executionTokens.Add(ctx, int64(tokens), attrs)
	}
	if degraded {
		m.degradedTotal.Add(ctx, 1, attrs)
	}
}

func (m *OTelMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
	m.toolCallsTotal.Add(ctx, 1, attrs)
	if err != nil {
		m.toolErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (m *OTelMetrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, tokens int, err error) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.llmDuration.Record(ctx, duration.Seconds(), attrs)
	if tokens > 0 {
		m.llmTokensTotal.Add(ctx, int64(tokens), attrs)
	}
	if err != nil {
		m.llmErrorsTotal.Add(ctx, 1, attrs)
	}
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

var _ Metrics = NoopMetrics{}

func (NoopMetrics) RecordExecution(context.Context, string, time.Duration, int, bool) {}
func (NoopMetrics) RecordToolExecution(context.Context, string, time.Duration, error) {}
func (NoopMetrics) RecordLLMCall(context.Context, string, time.Duration, int, error)  {}
