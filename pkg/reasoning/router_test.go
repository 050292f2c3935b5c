package reasoning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/todo"
)

func routerFixture(llm *fakeLLM) *Router {
	executor := &fakeExecutor{schemas: searchSchema()}
	l1 := NewL1FastTrack(llm, executor, "")
	l3 := NewL3ReActEngine(llm, executor, todo.NewMemoryStore(), l3Config())
	return NewRouter(l1, l3)
}

func TestRouterDispatchesByRoute(t *testing.T) {
	tests := []struct {
		name   string
		route  string
		source string
	}{
		{"standard goes to the fast track", RouteStandardL1, RouteStandardL1},
		{"deep goes to the react engine", RouteDeepL3, RouteDeepL3},
		{"unknown falls back to the fast track", "mystery_route", RouteStandardL1},
		{"empty falls back to the fast track", "", RouteStandardL1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := routerFixture(&fakeLLM{responses: []*llms.ChatResponse{answerResponse("hi", 5)}})

			result, err := router.Execute(context.Background(), IntentResult{RawInput: "q", Route: tt.route}, "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.source, result.Source)
			assert.Equal(t, "hi", result.Reply)
		})
	}
}

func TestRouterStampsDuration(t *testing.T) {
	router := routerFixture(&fakeLLM{responses: []*llms.ChatResponse{answerResponse("hi", 5)}})

	result, err := router.Execute(context.Background(), IntentResult{RawInput: "q", Route: RouteStandardL1}, "s1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.DurationMS, 0)
}

func TestRouterPropagatesEngineError(t *testing.T) {
	router := routerFixture(&fakeLLM{}) // exhausted fake fails the first call

	_, err := router.Execute(context.Background(), IntentResult{RawInput: "q", Route: RouteDeepL3}, "s1")
	require.Error(t, err)
}

func TestRouterStreamDispatch(t *testing.T) {
	tests := []struct {
		name  string
		route string
		types []protocol.EventType
	}{
		{
			"standard streams the degenerate single delta",
			RouteStandardL1,
			[]protocol.EventType{protocol.EventDelta, protocol.EventFinish},
		},
		{
			"deep streams thought then delta",
			RouteDeepL3,
			[]protocol.EventType{protocol.EventThought, protocol.EventDelta, protocol.EventFinish},
		},
		{
			"unknown streams via the fast track",
			"mystery_route",
			[]protocol.EventType{protocol.EventDelta, protocol.EventFinish},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := routerFixture(&fakeLLM{responses: []*llms.ChatResponse{answerResponse("hi", 5)}})

			events := collect(router.ExecuteStream(context.Background(), IntentResult{RawInput: "q", Route: tt.route}, "s1"))

			types := make([]protocol.EventType, len(events))
			for i, ev := range events {
				types[i] = ev.Type
			}
			assert.Equal(t, tt.types, types)
		})
	}
}
