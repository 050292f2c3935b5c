package reasoning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

func TestThinkWithToolsUsesToolEndpoint(t *testing.T) {
	llm := &fakeLLM{responses: []*llms.ChatResponse{
		toolCallResponse("searching", protocol.ToolCall{ID: "c1", Name: "web_search"}),
	}}
	thinker := NewThinker(llm)

	think, err := thinker.Think(context.Background(), nil, searchSchema())
	require.NoError(t, err)

	assert.Equal(t, "searching", think.Thought)
	assert.False(t, think.IsDone)
	require.Len(t, llm.toolsOnCall(0), 1)
	assert.Equal(t, "web_search", llm.toolsOnCall(0)[0].Name)
}

func TestThinkWithoutToolsUsesPlainChat(t *testing.T) {
	llm := &fakeLLM{responses: []*llms.ChatResponse{answerResponse("final answer", 12)}}
	thinker := NewThinker(llm)

	think, err := thinker.Think(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.True(t, think.IsDone, "no tool calls means done")
	assert.Equal(t, "final answer", think.Thought)
	assert.Nil(t, llm.toolsOnCall(0), "plain chat carries no schemas")
}
