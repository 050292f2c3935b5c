package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/observability"
	"github.com/tactus-ai/tactus/pkg/registry"
)

// Tools without a registered timeout get this fail-safe bound. Tools are
// expected to keep their internal I/O timeouts strictly below it.
const defaultToolTimeout = 30 * time.Second

// ToolRegistryError describes registry-level failures (registration,
// configuration). Execution failures are ToolResults, not errors.
type ToolRegistryError struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *ToolRegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Component, e.Action, e.Message)
}

func (e *ToolRegistryError) Unwrap() error { return e.Err }

// Registry is the process-wide tool catalog. Registration happens during
// startup; dispatch and schema emission are safe for concurrent use.
type Registry struct {
	tools *registry.BaseRegistry[Tool]
}

var _ Executor = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{tools: registry.NewBaseRegistry[Tool]()}
}

// Register adds a tool under its descriptor name.
func (r *Registry) Register(tool Tool) error {
	desc := tool.Descriptor()
	if desc.Name == "" {
		return &ToolRegistryError{Component: "registry", Action: "register", Message: "tool name cannot be empty"}
	}
	if len(desc.Tiers) == 0 {
		return &ToolRegistryError{Component: "registry", Action: "register",
			Message: fmt.Sprintf("tool %q declares no tiers", desc.Name)}
	}
	for _, tier := range desc.Tiers {
		if tier != TierL1 && tier != TierL3 {
			return &ToolRegistryError{Component: "registry", Action: "register",
				Message: fmt.Sprintf("tool %q declares unknown tier %q", desc.Name, tier)}
		}
	}
	if err := r.tools.Register(desc.Name, tool); err != nil {
		return &ToolRegistryError{Component: "registry", Action: "register",
			Message: fmt.Sprintf("tool %q", desc.Name), Err: err}
	}
	slog.Debug("Tool registered", "tool", desc.Name, "tiers", desc.Tiers)
	return nil
}

// MustRegister registers or panics; for static startup wiring.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools.Get(name)
	return ok
}

func (r *Registry) Get(name string) (Tool, bool) {
	return r.tools.Get(name)
}

func (r *Registry) Names() []string {
	return r.tools.Names()
}

func (r *Registry) Count() int {
	return r.tools.Count()
}

// SchemasFor emits the model-facing definitions of every tool visible at
// the tier. Descriptors are recomputed here, so meta-tools with dynamic
// catalogs stay current.
func (r *Registry) SchemasFor(tier Tier) []llms.ToolDefinition {
	var defs []llms.ToolDefinition
	for _, tool := range r.tools.List() {
		desc := tool.Descriptor()
		if desc.InTier(tier) {
			defs = append(defs, desc.Definition())
		}
	}
	return defs
}

// ExecuteTool looks up and runs a tool, returning the canonical result
// JSON. Unknown tools, timeouts, and tool failures all come back as error
// results the model can read; only cancellation propagates as an error.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.tools.Get(name)
	if !ok {
		return Failf("unknown tool: %s", name).ToJSON(), nil
	}
	return runBounded(ctx, tool, name, args)
}

// runBounded executes a tool under its registered fail-safe timeout and
// records the otel span and metrics. Shared with the restricted view.
func runBounded(ctx context.Context, tool Tool, name string, args map[string]any) (string, error) {
	desc := tool.Descriptor()
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}

	ctx, span := observability.Tracer().Start(ctx, "tool.execute")
	span.SetAttributes(attribute.String("tool.name", name))
	defer span.End()

	start := time.Now()
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result ToolResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := tool.Execute(toolCtx, args)
		done <- outcome{result, err}
	}()

	var result ToolResult
	select {
	case out := <-done:
		switch {
		case out.err == nil:
			result = out.result
		case ctx.Err() != nil:
			// The surrounding execution was cancelled; propagate.
			span.SetStatus(codes.Error, "cancelled")
			observability.GetMetrics().RecordToolExecution(ctx, name, time.Since(start), ctx.Err())
			return "", ctx.Err()
		case errors.Is(out.err, context.DeadlineExceeded):
			result = Failf("timeout (%dms)", timeout.Milliseconds())
		default:
			result = Failf("execution exception: %v", out.err)
		}
	case <-toolCtx.Done():
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			observability.GetMetrics().RecordToolExecution(ctx, name, time.Since(start), ctx.Err())
			return "", ctx.Err()
		}
		result = Failf("timeout (%dms)", timeout.Milliseconds())
	}

	duration := time.Since(start)
	if !result.OK {
		span.SetStatus(codes.Error, result.Reason)
		slog.Warn("Tool returned error result", "tool", name, "reason", result.Reason, "duration", duration)
		observability.GetMetrics().RecordToolExecution(ctx, name, duration, errors.New(result.Reason))
	} else {
		observability.GetMetrics().RecordToolExecution(ctx, name, duration, nil)
	}
	return result.ToJSON(), nil
}
