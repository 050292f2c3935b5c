package reasoning

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tactus-ai/tactus/pkg/observability"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

// Router is the execution layer's single entry point. It dispatches by
// the classified route, stamps the wall-clock duration on the result, and
// records the execution metrics. Unknown routes fall back to the fast
// track with a warning rather than failing the request.
type Router struct {
	l1 *L1FastTrack
	l3 *L3ReActEngine
}

func NewRouter(l1 *L1FastTrack, l3 *L3ReActEngine) *Router {
	return &Router{l1: l1, l3: l3}
}

// Execute runs a request to completion on the engine its route selects.
func (r *Router) Execute(ctx context.Context, intent IntentResult, sessionID string) (*ExecutionResult, error) {
	requestID := uuid.NewString()
	start := time.Now()

	var (
		result *ExecutionResult
		err    error
	)
	switch intent.Route {
	case RouteStandardL1:
		result, err = r.l1.Execute(ctx, intent, sessionID)
	case RouteDeepL3:
		result, err = r.l3.Execute(ctx, intent, sessionID)
	default:
		slog.Warn("Unknown route, falling back to standard execution",
			"route", intent.Route, "request_id", requestID)
		result, err = r.l1.Execute(ctx, intent, sessionID)
	}
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	result.DurationMS = int(duration.Milliseconds())

	tokens := 0
	if result.TokenUsage != nil {
		tokens = result.TokenUsage.TotalTokens
	}
	observability.GetMetrics().RecordExecution(ctx, result.Source, duration, tokens, result.IsDegraded)

	slog.Info("Execution complete",
		"request_id", requestID,
		"source", result.Source,
		"duration_ms", result.DurationMS,
		"iterations", result.Iterations,
		"degraded", result.IsDegraded)
	return result, nil
}

// ExecuteStream runs a request on the engine its route selects and
// returns the event stream. The channel closes when the run ends.
func (r *Router) ExecuteStream(ctx context.Context, intent IntentResult, sessionID string) <-chan protocol.Event {
	switch intent.Route {
	case RouteStandardL1:
		return r.l1.ExecuteStream(ctx, intent, sessionID)
	case RouteDeepL3:
		return r.l3.ExecuteStream(ctx, intent, sessionID)
	default:
		slog.Warn("Unknown route, falling back to standard streaming", "route", intent.Route)
		return r.l1.ExecuteStream(ctx, intent, sessionID)
	}
}
