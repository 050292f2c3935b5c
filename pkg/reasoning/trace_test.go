package reasoning

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceAddThoughtOverwritesSameStep(t *testing.T) {
	var trace ReasoningTrace
	trace.AddThought(0, "first draft", 5)
	trace.AddThought(0, "revised", 7)

	require.Equal(t, 1, trace.StepCount())
	assert.Equal(t, "revised", trace.Steps()[0].Thought)
	assert.Equal(t, 7, trace.Steps()[0].TokensUsed)
}

func TestTraceAddActionWithoutThought(t *testing.T) {
	var trace ReasoningTrace
	trace.AddAction(2, "web_search", map[string]any{"query": "x"}, "found it")

	require.Equal(t, 1, trace.StepCount())
	step := trace.Steps()[0]
	assert.Equal(t, 2, step.Step)
	require.Len(t, step.Actions, 1)
	assert.Equal(t, "web_search", step.Actions[0]["tool"])
	require.Len(t, step.Observations, 1)
	assert.Equal(t, "found it", step.Observations[0]["result"])
}

func TestSummarizeObservationsClipsLongResults(t *testing.T) {
	var trace ReasoningTrace
	trace.AddAction(0, "web_search", nil, strings.Repeat("a", 600))
	trace.AddAction(1, "web_fetch", nil, "short")

	summary := trace.SummarizeObservations()
	lines := strings.Split(summary, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "- web_search: "+strings.Repeat("a", 500), lines[0])
	assert.Equal(t, "- web_fetch: short", lines[1])
}

func TestSummarizeObservationsClipsOnRuneBoundary(t *testing.T) {
	var trace ReasoningTrace
	trace.AddAction(0, "web_fetch", nil, strings.Repeat("é", 600))

	summary := trace.SummarizeObservations()
	require.True(t, utf8.ValidString(summary))
	assert.Equal(t, "- web_fetch: "+strings.Repeat("é", 500), summary)
}

func TestSummarizeObservationsEmpty(t *testing.T) {
	var trace ReasoningTrace
	trace.AddThought(0, "no actions taken", 3)
	assert.Empty(t, trace.SummarizeObservations())
}

func TestToolCallRecords(t *testing.T) {
	var trace ReasoningTrace
	trace.AddThought(0, "searching", 10)
	trace.AddAction(0, "web_search", map[string]any{"query": "go"}, `{"status":"success"}`)
	trace.AddThought(1, "done", 5)

	records := trace.ToolCallRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "l3_step0_web_search", records[0].ToolCallID)
	assert.Equal(t, "web_search", records[0].ToolName)
	assert.Equal(t, map[string]any{"query": "go"}, records[0].Arguments)
	assert.Equal(t, `{"status":"success"}`, records[0].Result)
	assert.Equal(t, "success", records[0].Status)
}
