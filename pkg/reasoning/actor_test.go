package reasoning

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tactus-ai/tactus/pkg/protocol"
)

func TestActorNoToolCalls(t *testing.T) {
	actor := NewActor(&fakeExecutor{})

	act, err := actor.Act(context.Background(), ThinkResult{Thought: "just thinking"})
	require.NoError(t, err)
	assert.Empty(t, act.Observations)
	assert.Empty(t, act.Messages)
}

func TestActorMergesResultsInRequestOrder(t *testing.T) {
	executor := &fakeExecutor{handler: func(name string, _ map[string]any) (string, error) {
		return fmt.Sprintf(`{"status":"success","tool":%q}`, name), nil
	}}
	actor := NewActor(executor)

	think := ThinkResult{
		Thought: "fan out",
		ToolCalls: []protocol.ToolCall{
			{ID: "c1", Name: "web_search", Arguments: map[string]any{"query": "a"}},
			{ID: "c2", Name: "web_fetch", Arguments: map[string]any{"url": "b"}},
		},
	}
	act, err := actor.Act(context.Background(), think)
	require.NoError(t, err)

	require.Len(t, act.Observations, 2)
	assert.Equal(t, "web_search", act.Observations[0].ToolName)
	assert.Equal(t, "web_fetch", act.Observations[1].ToolName)

	// Assistant echo first, then one tool message per call, in order.
	require.Len(t, act.Messages, 3)
	assert.Equal(t, protocol.RoleAssistant, act.Messages[0].Role)
	assert.Equal(t, "fan out", act.Messages[0].Content)
	assert.Len(t, act.Messages[0].ToolCalls, 2)
	assert.Equal(t, "c1", act.Messages[1].ToolCallID)
	assert.Contains(t, act.Messages[1].Content, "web_search")
	assert.Equal(t, "c2", act.Messages[2].ToolCallID)
}

func TestActorPropagatesExecutorFailure(t *testing.T) {
	boom := errors.New("context torn down")
	executor := &fakeExecutor{handler: func(name string, _ map[string]any) (string, error) {
		if name == "bad" {
			return "", boom
		}
		return `{"status":"success"}`, nil
	}}
	actor := NewActor(executor)

	_, err := actor.Act(context.Background(), ThinkResult{
		ToolCalls: []protocol.ToolCall{
			{ID: "c1", Name: "good"},
			{ID: "c2", Name: "bad"},
		},
	})
	assert.ErrorIs(t, err, boom)
}
