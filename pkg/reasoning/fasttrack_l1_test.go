package reasoning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

func l1Intent(input string) IntentResult {
	return IntentResult{RawInput: input, Route: RouteStandardL1}
}

func TestL1PureReply(t *testing.T) {
	llm := &fakeLLM{responses: []*llms.ChatResponse{answerResponse("4", 8)}}
	track := NewL1FastTrack(llm, &fakeExecutor{schemas: searchSchema()}, "")

	result, err := track.Execute(context.Background(), l1Intent("what is 2+2?"), "s1")
	require.NoError(t, err)

	assert.Equal(t, "4", result.Reply)
	assert.Equal(t, RouteStandardL1, result.Source)
	assert.Empty(t, result.ToolCalls)
	assert.False(t, result.IsDegraded)
	assert.Equal(t, 1, llm.callCount())
}

func TestL1SingleToolRound(t *testing.T) {
	llm := &fakeLLM{responses: []*llms.ChatResponse{
		toolCallResponse("", protocol.ToolCall{
			ID: "c1", Name: "web_search", Arguments: map[string]any{"query": "X"},
		}),
		answerResponse("Here is the latest on X.", 20),
	}}
	executor := &fakeExecutor{schemas: searchSchema()}
	track := NewL1FastTrack(llm, executor, "")

	result, err := track.Execute(context.Background(), l1Intent("search latest news on X"), "s1")
	require.NoError(t, err)

	assert.Equal(t, "Here is the latest on X.", result.Reply)
	assert.Equal(t, []string{"web_search"}, executor.executed())

	require.Len(t, result.ToolCalls, 1)
	record := result.ToolCalls[0]
	assert.Equal(t, "web_search", record.ToolName)
	assert.Equal(t, "c1", record.ToolCallID)
	assert.GreaterOrEqual(t, record.DurationMS, 0)

	// Second call must see the assistant echo followed by the tool result.
	second := llm.messagesOnCall(1)
	assert.Equal(t, protocol.RoleAssistant, second[len(second)-2].Role)
	assert.Equal(t, protocol.RoleTool, second[len(second)-1].Role)
}

func TestL1FinalStepForcesSummary(t *testing.T) {
	call := func(id string) protocol.ToolCall {
		return protocol.ToolCall{ID: id, Name: "web_search", Arguments: map[string]any{"query": "q"}}
	}
	llm := &fakeLLM{responses: []*llms.ChatResponse{
		toolCallResponse("", call("c1")),
		toolCallResponse("", call("c2")),
		answerResponse("summary", 12),
	}}
	track := NewL1FastTrack(llm, &fakeExecutor{schemas: searchSchema()}, "")

	result, err := track.Execute(context.Background(), l1Intent("dig deep"), "s1")
	require.NoError(t, err)

	assert.Equal(t, "summary", result.Reply)
	require.Equal(t, 3, llm.callCount())
	assert.NotEmpty(t, llm.toolsOnCall(0))
	assert.NotEmpty(t, llm.toolsOnCall(1))
	assert.Nil(t, llm.toolsOnCall(2), "final step must go out without tools")
}

func TestL1BasePromptInSystemMessage(t *testing.T) {
	llm := &fakeLLM{responses: []*llms.ChatResponse{answerResponse("ok", 1)}}
	track := NewL1FastTrack(llm, &fakeExecutor{}, "You are a billing assistant.")

	_, err := track.Execute(context.Background(), l1Intent("q"), "s1")
	require.NoError(t, err)

	system := llm.messagesOnCall(0)[0]
	require.Equal(t, protocol.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "You are a billing assistant.")
}

func TestL1StreamDegenerateSingleDelta(t *testing.T) {
	// The tool-decision call already returned a complete answer: it must go
	// out as one delta with no second generation.
	llm := &fakeLLM{responses: []*llms.ChatResponse{answerResponse("complete answer", 10)}}
	track := NewL1FastTrack(llm, &fakeExecutor{schemas: searchSchema()}, "")

	events := collect(track.ExecuteStream(context.Background(), l1Intent("q"), "s1"))

	require.Len(t, events, 2)
	assert.Equal(t, protocol.EventDelta, events[0].Type)
	assert.Equal(t, "complete answer", events[0].Content)
	assert.Equal(t, protocol.EventFinish, events[1].Type)
	assert.Equal(t, 1, llm.callCount())
}

func TestL1StreamToolRoundThenTokens(t *testing.T) {
	llm := &fakeLLM{
		responses: []*llms.ChatResponse{
			toolCallResponse("", protocol.ToolCall{
				ID: "c1", Name: "web_search", Arguments: map[string]any{"query": "go"},
			}),
			// Second decision round returns no content and no tool calls,
			// pushing the loop into the streaming finale.
			answerResponse("", 0),
		},
		chunks: []llms.StreamChunk{
			{Type: llms.ChunkText, Text: "Fou"},
			{Type: llms.ChunkText, Text: "nd it."},
			{Type: llms.ChunkDone},
		},
	}
	track := NewL1FastTrack(llm, &fakeExecutor{schemas: searchSchema()}, "")

	events := collect(track.ExecuteStream(context.Background(), l1Intent("q"), "s1"))

	types := make([]protocol.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	assert.Equal(t, []protocol.EventType{
		protocol.EventToolCall,
		protocol.EventToolResult,
		protocol.EventDelta,
		protocol.EventDelta,
		protocol.EventFinish,
	}, types)
	assert.Equal(t, "web_search", events[0].Name)
	assert.Equal(t, "Fou", events[2].Content)
	assert.Equal(t, "nd it.", events[3].Content)
}

func TestL1StreamLLMError(t *testing.T) {
	track := NewL1FastTrack(&fakeLLM{}, &fakeExecutor{}, "")

	events := collect(track.ExecuteStream(context.Background(), l1Intent("q"), "s1"))
	require.Len(t, events, 1)
	assert.Equal(t, protocol.EventError, events[0].Type)
}
