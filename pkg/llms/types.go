package llms

import (
	"github.com/tactus-ai/tactus/pkg/protocol"
)

// ToolDefinition is the provider-neutral function schema handed to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage mirrors provider token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the result of a non-streaming chat call.
type ChatResponse struct {
	Content      string
	ToolCalls    []protocol.ToolCall
	Usage        Usage
	FinishReason string
}

// Stream chunk types.
const (
	ChunkText     = "text"
	ChunkToolCall = "tool_call"
	ChunkDone     = "done"
)

// StreamChunk is one element of a streaming chat response. Tool calls are
// emitted fully assembled once the provider finishes buffering arguments.
// A mid-stream failure is delivered as a final chunk with Err set.
type StreamChunk struct {
	Type     string
	Text     string
	ToolCall *protocol.ToolCall
	Tokens   int
	Err      error
}
