package reasoning

import (
	"context"
	"errors"
	"sync"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/tools"
)

// fakeLLM replays canned responses in order and records the tool schemas
// each call carried, so tests can assert when the loop withheld tools.
type fakeLLM struct {
	mu        sync.Mutex
	responses []*llms.ChatResponse
	toolsSeen [][]llms.ToolDefinition
	msgsSeen  [][]protocol.Message
	chunks    []llms.StreamChunk
}

func (f *fakeLLM) next(messages []protocol.Message, toolDefs []llms.ToolDefinition) (*llms.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toolsSeen = append(f.toolsSeen, toolDefs)
	f.msgsSeen = append(f.msgsSeen, append([]protocol.Message(nil), messages...))
	if len(f.responses) == 0 {
		return nil, errors.New("fake llm exhausted")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeLLM) Chat(_ context.Context, messages []protocol.Message) (*llms.ChatResponse, error) {
	return f.next(messages, nil)
}

func (f *fakeLLM) ChatWithTools(_ context.Context, messages []protocol.Message, toolDefs []llms.ToolDefinition) (*llms.ChatResponse, error) {
	return f.next(messages, toolDefs)
}

func (f *fakeLLM) ChatStream(_ context.Context, _ []protocol.Message, _ []llms.ToolDefinition) (<-chan llms.StreamChunk, error) {
	ch := make(chan llms.StreamChunk, len(f.chunks))
	for _, chunk := range f.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.toolsSeen)
}

func (f *fakeLLM) toolsOnCall(i int) []llms.ToolDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toolsSeen[i]
}

func (f *fakeLLM) messagesOnCall(i int) []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgsSeen[i]
}

// fakeExecutor dispatches to an in-test handler and exposes a fixed schema
// list regardless of tier.
type fakeExecutor struct {
	schemas []llms.ToolDefinition
	handler func(name string, args map[string]any) (string, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeExecutor) ExecuteTool(_ context.Context, name string, args map[string]any) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.handler == nil {
		return `{"status":"success"}`, nil
	}
	return f.handler(name, args)
}

func (f *fakeExecutor) SchemasFor(_ tools.Tier) []llms.ToolDefinition { return f.schemas }

func (f *fakeExecutor) Has(name string) bool { return true }

func (f *fakeExecutor) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func searchSchema() []llms.ToolDefinition {
	return []llms.ToolDefinition{{
		Name:        "web_search",
		Description: "Search the web",
		Parameters:  map[string]any{"type": "object"},
	}}
}

func toolCallResponse(thought string, calls ...protocol.ToolCall) *llms.ChatResponse {
	return &llms.ChatResponse{Content: thought, ToolCalls: calls, Usage: llms.Usage{TotalTokens: 10}}
}

func answerResponse(text string, tokens int) *llms.ChatResponse {
	return &llms.ChatResponse{Content: text, Usage: llms.Usage{TotalTokens: tokens}}
}

func collect(events <-chan protocol.Event) []protocol.Event {
	var out []protocol.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}
