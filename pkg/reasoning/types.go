// Package reasoning hosts the two execution engines and the router that
// fronts them: the L1 bounded tool loop for standard requests and the L3
// ReAct engine (Thinker, Actor, Observer) for deep multi-step work.
package reasoning

import (
	"time"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

// Route labels produced by intent classification and consumed by the router.
const (
	RouteStandardL1 = "standard_l1"
	RouteDeepL3     = "deep_l3"
)

// IntentResult is the router's input: the classified request plus the
// conversation context it arrived with.
type IntentResult struct {
	// RawInput is the user's message verbatim.
	RawInput string `json:"raw_input"`

	// UserGoal is the classifier's one-line restatement of what the user
	// wants. Optional; the L3 prompt falls back to a generic goal.
	UserGoal string `json:"user_goal,omitempty"`

	// Route selects the engine: RouteStandardL1 or RouteDeepL3.
	Route string `json:"route"`

	// History is the prior conversation, oldest first, without the
	// current user message.
	History []protocol.Message `json:"history,omitempty"`
}

// ToolCallRecord is one completed tool invocation, kept for auditing and
// for the caller's transcript.
type ToolCallRecord struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Result     string         `json:"result"`
	Status     string         `json:"status"`
	DurationMS int            `json:"duration_ms"`
}

// TokenUsage is the accounting block attached to an ExecutionResult.
type TokenUsage struct {
	LLMCalls    int `json:"llm_calls"`
	TotalTokens int `json:"total_tokens"`
}

// ExecutionResult is the unified output of both engines. The trace fields
// are populated by L3 only; L1 leaves them zero.
type ExecutionResult struct {
	Reply      string           `json:"reply"`
	ToolCalls  []ToolCallRecord `json:"tool_calls,omitempty"`
	Source     string           `json:"source"`
	DurationMS int              `json:"duration_ms"`

	ReasoningTrace []TraceStep `json:"reasoning_trace,omitempty"`
	Iterations     int         `json:"iterations,omitempty"`
	TokenUsage     *TokenUsage `json:"token_usage,omitempty"`
	IsDegraded     bool        `json:"is_degraded,omitempty"`
	DegradeReason  string      `json:"degrade_reason,omitempty"`
}

// L3Config bounds one deep-reasoning run on three axes at once: loop
// iterations, wall-clock time, and LLM call count.
type L3Config struct {
	MaxIterations int
	Timeout       time.Duration
	MaxLLMCalls   int
}

func (c L3Config) withDefaults() L3Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 15
	}
	if c.Timeout <= 0 {
		c.Timeout = 180 * time.Second
	}
	if c.MaxLLMCalls <= 0 {
		c.MaxLLMCalls = 30
	}
	return c
}

// ThinkResult is one Thinker step: the model's visible reasoning plus the
// tool calls it decided on. IsDone holds exactly when there are no tool
// calls; the thought is then the final answer.
type ThinkResult struct {
	Thought   string
	ToolCalls []protocol.ToolCall
	Usage     llms.Usage
	IsDone    bool
}

// Observation is one executed tool call inside an Act step. Result is the
// canonical tool-result JSON.
type Observation struct {
	ToolName   string         `json:"tool"`
	ToolCallID string         `json:"tool_call_id"`
	Arguments  map[string]any `json:"args,omitempty"`
	Result     string         `json:"result"`
	DurationMS int            `json:"duration_ms"`
}

// ActResult is one Actor step: the observations plus the assistant and
// tool messages to append to the conversation, already in request order.
type ActResult struct {
	Observations []Observation
	Messages     []protocol.Message
}
