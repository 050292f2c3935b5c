// Package protocol defines the wire-neutral conversation and event types
// shared by the LLM layer, the execution engines, and the transport.
package protocol

import "encoding/json"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments are the
// decoded JSON object from the provider payload.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ArgumentsJSON returns the arguments re-encoded as a JSON object string,
// "{}" when empty or not encodable.
func (tc ToolCall) ArgumentsJSON() string {
	if len(tc.Arguments) == 0 {
		return "{}"
	}
	b, err := json.Marshal(tc.Arguments)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Message is one conversation turn. Assistant turns may carry tool calls;
// tool turns answer one of them via ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func ToolMessage(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, Name: name}
}

// EventType discriminates execution stream events.
type EventType string

const (
	EventStatus     EventType = "status"
	EventThought    EventType = "thought"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDelta      EventType = "delta"
	EventClarify    EventType = "clarify"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// Event is one element of the normalized execution stream. Fields are
// populated per type; unused fields stay zero and are omitted from JSON.
type Event struct {
	Type EventType `json:"type"`

	// status
	Phase string `json:"phase,omitempty"`

	// thought / tool_call / tool_result
	Step int            `json:"step,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`

	// thought / delta / tool_result / error
	Content string `json:"content,omitempty"`

	// clarify
	Question  string `json:"question,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// finish
	Iterations    int    `json:"iterations,omitempty"`
	TokensUsed    int    `json:"tokens_used,omitempty"`
	IsDegraded    bool   `json:"is_degraded,omitempty"`
	DegradeReason string `json:"degrade_reason,omitempty"`
}

func DeltaEvent(text string) Event {
	return Event{Type: EventDelta, Content: text}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Content: message}
}
