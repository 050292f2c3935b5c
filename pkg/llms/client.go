// Package llms abstracts the chat model behind three operations: plain
// chat, chat with tool schemas, and token streaming. Providers speak the
// OpenAI chat-completions dialect over the shared retrying HTTP client.
package llms

import (
	"context"

	"github.com/tactus-ai/tactus/pkg/protocol"
)

// Client is the model abstraction consumed by the execution engines.
type Client interface {
	// Chat requests a plain completion with no tools visible. Used on the
	// forced-summary step and for degenerate single-shot replies.
	Chat(ctx context.Context, messages []protocol.Message) (*ChatResponse, error)

	// ChatWithTools requests a completion with the given tool schemas
	// visible. The response may carry tool calls, text, or both.
	ChatWithTools(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (*ChatResponse, error)

	// ChatStream streams a completion. The channel is closed after a
	// terminal ChunkDone element; a mid-stream failure is delivered as a
	// final chunk carrying Err before the channel closes.
	ChatStream(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (<-chan StreamChunk, error)

	// ModelName reports the configured model, for logging and accounting.
	ModelName() string
}
