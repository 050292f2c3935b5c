package reasoning

import (
	"log/slog"
	"time"
)

// Observer tracks one L3 run across steps: the reasoning trace, the LLM
// call and token counters, and the circuit-breaker checks. One observer
// per run, used from the loop goroutine only.
type Observer struct {
	config      L3Config
	trace       ReasoningTrace
	llmCalls    int
	totalTokens int
	startTime   time.Time
}

func NewObserver(config L3Config) *Observer {
	return &Observer{config: config}
}

// Start begins the wall-clock budget. Call once before the loop.
func (o *Observer) Start() { o.startTime = time.Now() }

// Elapsed is the time since Start, zero if never started.
func (o *Observer) Elapsed() time.Duration {
	if o.startTime.IsZero() {
		return 0
	}
	return time.Since(o.startTime)
}

// OnThink records a thinking step and charges one LLM call to the budget.
func (o *Observer) OnThink(step int, result ThinkResult) {
	o.trace.AddThought(step, result.Thought, result.Usage.TotalTokens)
	o.llmCalls++
	o.totalTokens += result.Usage.TotalTokens

	slog.Debug("L3 think complete",
		"step", step,
		"is_done", result.IsDone,
		"tool_calls", len(result.ToolCalls),
		"tokens_used", result.Usage.TotalTokens)
}

// OnAct records the observations of an acting step.
func (o *Observer) OnAct(step int, result ActResult) {
	for _, obs := range result.Observations {
		o.trace.AddAction(step, obs.ToolName, obs.Arguments, obs.Result)
	}

	tools := make([]string, 0, len(result.Observations))
	for _, obs := range result.Observations {
		tools = append(tools, obs.ToolName)
	}
	slog.Debug("L3 act complete", "step", step, "tools", tools)
}

// ShouldStop runs the circuit-breaker checks in fixed order: wall-clock
// timeout first, then the LLM call budget. The reason string feeds the
// degradation result.
func (o *Observer) ShouldStop() (bool, string) {
	if elapsed := o.Elapsed(); elapsed > o.config.Timeout {
		slog.Warn("L3 circuit breaker: timeout",
			"elapsed", elapsed.Round(100*time.Millisecond),
			"limit", o.config.Timeout)
		return true, "timeout"
	}
	if o.llmCalls >= o.config.MaxLLMCalls {
		slog.Warn("L3 circuit breaker: budget exhausted",
			"llm_calls", o.llmCalls,
			"total_tokens", o.totalTokens)
		return true, "budget"
	}
	return false, ""
}

// Trace exposes the accumulated reasoning trace.
func (o *Observer) Trace() *ReasoningTrace { return &o.trace }

// Usage is the accounting snapshot for the result payload.
func (o *Observer) Usage() TokenUsage {
	return TokenUsage{LLMCalls: o.llmCalls, TotalTokens: o.totalTokens}
}
