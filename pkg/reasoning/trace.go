package reasoning

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TraceStep is one recorded Think/Act/Observe round.
type TraceStep struct {
	Step         int              `json:"step"`
	Thought      string           `json:"thought"`
	Actions      []map[string]any `json:"actions,omitempty"`
	Observations []map[string]any `json:"observations,omitempty"`
	TokensUsed   int              `json:"tokens_used,omitempty"`
	DurationMS   int              `json:"duration_ms,omitempty"`
}

// ReasoningTrace accumulates the full Think/Act/Observe history of one L3
// run for auditing and for the degradation summary. Not goroutine-safe;
// one trace belongs to one run.
type ReasoningTrace struct {
	steps []TraceStep
}

func (t *ReasoningTrace) find(step int) *TraceStep {
	for i := range t.steps {
		if t.steps[i].Step == step {
			return &t.steps[i]
		}
	}
	return nil
}

// AddThought records a step's thought, overwriting any earlier record for
// the same step.
func (t *ReasoningTrace) AddThought(step int, thought string, tokensUsed int) {
	if s := t.find(step); s != nil {
		s.Thought = thought
		s.TokensUsed = tokensUsed
		return
	}
	t.steps = append(t.steps, TraceStep{Step: step, Thought: thought, TokensUsed: tokensUsed})
}

// AddAction records one tool call and its result under the given step.
func (t *ReasoningTrace) AddAction(step int, toolName string, args map[string]any, result string) {
	s := t.find(step)
	if s == nil {
		t.steps = append(t.steps, TraceStep{Step: step})
		s = &t.steps[len(t.steps)-1]
	}
	s.Actions = append(s.Actions, map[string]any{"tool": toolName, "args": args})
	s.Observations = append(s.Observations, map[string]any{"tool": toolName, "result": result})
}

// StepCount is the number of recorded steps.
func (t *ReasoningTrace) StepCount() int { return len(t.steps) }

// Steps returns the recorded rounds in order.
func (t *ReasoningTrace) Steps() []TraceStep { return t.steps }

// SummarizeObservations joins every observation into the degradation
// summary. No extra LLM call is made; this is plain concatenation with
// each result clipped to 500 characters, never mid-rune.
func (t *ReasoningTrace) SummarizeObservations() string {
	var parts []string
	for _, s := range t.steps {
		for _, obs := range s.Observations {
			tool, _ := obs["tool"].(string)
			result, _ := obs["result"].(string)
			if utf8.RuneCountInString(result) > 500 {
				result = string([]rune(result)[:500])
			}
			parts = append(parts, fmt.Sprintf("- %s: %s", tool, result))
		}
	}
	return strings.Join(parts, "\n")
}

// ToolCallRecords flattens the trace into audit records. Synthetic ids
// encode the step and tool so records stay distinguishable even when the
// provider's call ids were not retained.
func (t *ReasoningTrace) ToolCallRecords() []ToolCallRecord {
	var records []ToolCallRecord
	for _, s := range t.steps {
		if len(s.Actions) == 0 || len(s.Observations) == 0 {
			continue
		}
		for i, action := range s.Actions {
			if i >= len(s.Observations) {
				break
			}
			tool, _ := action["tool"].(string)
			args, _ := action["args"].(map[string]any)
			result, _ := s.Observations[i]["result"].(string)
			records = append(records, ToolCallRecord{
				ToolCallID: fmt.Sprintf("l3_step%d_%s", s.Step, tool),
				ToolName:   tool,
				Arguments:  args,
				Result:     result,
				Status:     "success",
				DurationMS: s.DurationMS,
			})
		}
	}
	return records
}
