package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tactus-ai/tactus/pkg/observability"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

func providerFor(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIProvider(OpenAIConfig{
		Host:   server.URL,
		APIKey: "test-key",
		Model:  "gpt-4o",
	})
}

func TestOpenAIChatParsesResponse(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.False(t, req.Stream)
		assert.Empty(t, req.Tools)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": "Paris."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	})

	resp, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("capital of France?")})
	require.NoError(t, err)

	assert.Equal(t, "Paris.", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOpenAIChatWithToolsDecodesToolCalls(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "web_search", req.Tools[0].Function.Name)
		assert.Equal(t, "auto", req.ToolChoice)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": "searching",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "web_search",
							"arguments": `{"query":"go generics"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
			"usage": map[string]any{"total_tokens": 30},
		})
	})

	tools := []ToolDefinition{{Name: "web_search", Description: "Search", Parameters: map[string]any{"type": "object"}}}
	resp, err := provider.ChatWithTools(context.Background(), []protocol.Message{protocol.UserMessage("find docs")}, tools)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "web_search", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"query": "go generics"}, resp.ToolCalls[0].Arguments)
}

func TestOpenAIChatMalformedToolArguments(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"tool_calls": []map[string]any{{
						"id":       "call_1",
						"function": map[string]any{"name": "web_search", "arguments": "{not json"},
					}},
				},
			}},
		})
	})

	_, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("q")})
	require.Error(t, err)
	assert.Equal(t, ErrKindAPI, KindOf(err))
}

func TestOpenAIChatAuthFailure(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
		})
	})

	_, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("q")})
	require.Error(t, err)

	assert.Equal(t, ErrKindAuth, KindOf(err))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("q")})
	require.Error(t, err)
	assert.Equal(t, ErrKindAPI, KindOf(err))
}

func TestOpenAIChatStream(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"total_tokens":7}}`,
		}
		for _, chunk := range chunks {
			w.Write([]byte("data: " + chunk + "\n\n"))
		}
		w.Write([]byte("data: [DONE]\n\n"))
	})

	stream, err := provider.ChatStream(context.Background(), []protocol.Message{protocol.UserMessage("hi")}, nil)
	require.NoError(t, err)

	var texts []string
	var done *StreamChunk
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		switch chunk.Type {
		case ChunkText:
			texts = append(texts, chunk.Text)
		case ChunkDone:
			c := chunk
			done = &c
		}
	}

	assert.Equal(t, []string{"Hel", "lo"}, texts)
	require.NotNil(t, done)
	assert.Equal(t, 7, done.Tokens)
}

func TestOpenAIChatStreamAssemblesToolCallFragments(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"tool_calls":[{"id":"call_1","function":{"name":"web_search","arguments":"{\"que"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"function":{"arguments":"ry\":\"go\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, chunk := range chunks {
			w.Write([]byte("data: " + chunk + "\n\n"))
		}
		w.Write([]byte("data: [DONE]\n\n"))
	})

	stream, err := provider.ChatStream(context.Background(), []protocol.Message{protocol.UserMessage("q")}, nil)
	require.NoError(t, err)

	var calls []protocol.ToolCall
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		if chunk.Type == ChunkToolCall {
			calls = append(calls, *chunk.ToolCall)
		}
	}

	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "web_search", calls[0].Name)
	assert.Equal(t, map[string]any{"query": "go"}, calls[0].Arguments)
}

type recordedLLMCall struct {
	model  string
	tokens int
	err    error
}

// llmMetricsRecorder captures RecordLLMCall invocations; everything else
// falls through to the noop implementation.
type llmMetricsRecorder struct {
	observability.NoopMetrics
	mu    sync.Mutex
	calls []recordedLLMCall
}

func (r *llmMetricsRecorder) RecordLLMCall(_ context.Context, model string, _ time.Duration, tokens int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedLLMCall{model: model, tokens: tokens, err: err})
}

func (r *llmMetricsRecorder) recorded() []recordedLLMCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedLLMCall(nil), r.calls...)
}

func installRecorder(t *testing.T) *llmMetricsRecorder {
	t.Helper()
	recorder := &llmMetricsRecorder{}
	observability.SetGlobalMetrics(recorder)
	t.Cleanup(func() { observability.SetGlobalMetrics(nil) })
	return recorder
}

func TestOpenAIChatRecordsLLMMetrics(t *testing.T) {
	recorder := installRecorder(t)
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": "ok"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"total_tokens": 42},
		})
	})

	_, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("hi")})
	require.NoError(t, err)

	calls := recorder.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "gpt-4o", calls[0].model)
	assert.Equal(t, 42, calls[0].tokens)
	assert.NoError(t, calls[0].err)
}

func TestOpenAIChatRecordsFailedLLMCall(t *testing.T) {
	recorder := installRecorder(t)
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	})

	_, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("q")})
	require.Error(t, err)

	calls := recorder.recorded()
	require.Len(t, calls, 1)
	assert.Error(t, calls[0].err)
	assert.Zero(t, calls[0].tokens)
}

func TestOpenAIChatStreamRecordsLLMMetrics(t *testing.T) {
	recorder := installRecorder(t)
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"hi"}}]}` + "\n\n"))
		w.Write([]byte(`data: {"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"total_tokens":9}}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	})

	stream, err := provider.ChatStream(context.Background(), []protocol.Message{protocol.UserMessage("hi")}, nil)
	require.NoError(t, err)
	for chunk := range stream {
		require.NoError(t, chunk.Err)
	}

	// The channel closes after the recording, so the call is visible here.
	calls := recorder.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, 9, calls[0].tokens)
	assert.NoError(t, calls[0].err)
}

func TestOpenAIUsageEstimatedWhenMissing(t *testing.T) {
	provider := providerFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"content": "a reasonably long answer about Go"},
			}},
		})
	})

	resp, err := provider.Chat(context.Background(), []protocol.Message{protocol.UserMessage("tell me about Go")})
	require.NoError(t, err)
	assert.Greater(t, resp.Usage.TotalTokens, 0, "missing usage must fall back to the estimator")
}
