package reasoning

import (
	"context"
	"log/slog"
	"time"

	"github.com/tactus-ai/tactus/pkg/agentctx"
	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/tools"
)

// The fast track caps itself at three rounds. The last round goes out
// without tools, so a tool-happy model still converges on an answer.
const maxLoopSteps = 3

// L1FastTrack is the bounded micro-loop for standard requests: call the
// model with the fixed L1 tool set, execute whatever it asks for, feed
// the results back, and stop at the first tool-free reply.
type L1FastTrack struct {
	llm        llms.Client
	tools      tools.Executor
	basePrompt string
}

func NewL1FastTrack(llm llms.Client, executor tools.Executor, basePrompt string) *L1FastTrack {
	if basePrompt == "" {
		basePrompt = DefaultBasePrompt
	}
	return &L1FastTrack{llm: llm, tools: executor, basePrompt: basePrompt}
}

// Execute runs the blocking bounded loop and returns the final reply.
func (f *L1FastTrack) Execute(ctx context.Context, intent IntentResult, sessionID string) (*ExecutionResult, error) {
	ctx = agentctx.WithSessionID(ctx, sessionID)
	start := time.Now()

	messages := f.buildMessages(intent)
	toolSchemas := f.tools.SchemasFor(tools.TierL1)

	var (
		records []ToolCallRecord
		resp    *llms.ChatResponse
		err     error
	)

	for step := 0; step < maxLoopSteps; step++ {
		if step < maxLoopSteps-1 {
			resp, err = f.llm.ChatWithTools(ctx, messages, toolSchemas)
		} else {
			resp, err = f.llm.Chat(ctx, messages)
		}
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			break
		}

		messages = append(messages, protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		toolNames := make([]string, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			toolStart := time.Now()
			result, execErr := f.tools.ExecuteTool(ctx, tc.Name, tc.Arguments)
			if execErr != nil {
				return nil, execErr
			}
			records = append(records, ToolCallRecord{
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Arguments:  tc.Arguments,
				Result:     result,
				Status:     "success",
				DurationMS: int(time.Since(toolStart).Milliseconds()),
			})
			messages = append(messages, protocol.ToolMessage(tc.ID, tc.Name, result))
			toolNames = append(toolNames, tc.Name)
		}

		slog.Info("L1 tool round complete", "step", step+1, "tools", toolNames)
	}

	reply := ""
	if resp != nil {
		reply = resp.Content
	}
	return &ExecutionResult{
		Reply:      reply,
		ToolCalls:  records,
		Source:     RouteStandardL1,
		DurationMS: int(time.Since(start).Milliseconds()),
	}, nil
}

// ExecuteStream runs the same loop, narrating tool rounds as events and
// streaming the final answer as deltas. One degenerate case avoids a
// doubled generation: when the tool-decision call already returned a full
// reply with no tool calls, that reply goes out as a single delta instead
// of a second streaming call.
func (f *L1FastTrack) ExecuteStream(ctx context.Context, intent IntentResult, sessionID string) <-chan protocol.Event {
	events := make(chan protocol.Event)
	go func() {
		defer close(events)
		f.streamLoop(agentctx.WithSessionID(ctx, sessionID), intent, events)
	}()
	return events
}

func (f *L1FastTrack) streamLoop(ctx context.Context, intent IntentResult, events chan<- protocol.Event) {
	emit := func(ev protocol.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	messages := f.buildMessages(intent)
	toolSchemas := f.tools.SchemasFor(tools.TierL1)

	for step := 0; step < maxLoopSteps; step++ {
		var (
			resp *llms.ChatResponse
			err  error
		)
		if step < maxLoopSteps-1 {
			resp, err = f.llm.ChatWithTools(ctx, messages, toolSchemas)
			if err != nil {
				emit(protocol.ErrorEvent(err.Error()))
				return
			}
		}

		if resp == nil || len(resp.ToolCalls) == 0 {
			if resp != nil && resp.Content != "" {
				// Full reply already in hand, emit it as one delta.
				emit(protocol.DeltaEvent(resp.Content))
				emit(protocol.Event{Type: protocol.EventFinish})
				return
			}
			f.streamFinal(ctx, messages, emit)
			return
		}

		messages = append(messages, protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			emit(protocol.Event{Type: protocol.EventToolCall, Name: tc.Name, Args: tc.Arguments})

			result, execErr := f.tools.ExecuteTool(ctx, tc.Name, tc.Arguments)
			if execErr != nil {
				emit(protocol.ErrorEvent(execErr.Error()))
				return
			}

			emit(protocol.Event{Type: protocol.EventToolResult, Name: tc.Name, Content: result})
			messages = append(messages, protocol.ToolMessage(tc.ID, tc.Name, result))
		}
	}

	f.streamFinal(ctx, messages, emit)
}

// streamFinal streams the closing answer token by token.
func (f *L1FastTrack) streamFinal(ctx context.Context, messages []protocol.Message, emit func(protocol.Event) bool) {
	stream, err := f.llm.ChatStream(ctx, messages, nil)
	if err != nil {
		emit(protocol.ErrorEvent(err.Error()))
		return
	}
	for chunk := range stream {
		if chunk.Err != nil {
			emit(protocol.ErrorEvent(chunk.Err.Error()))
			return
		}
		switch chunk.Type {
		case llms.ChunkText:
			if !emit(protocol.DeltaEvent(chunk.Text)) {
				return
			}
		case llms.ChunkDone:
			emit(protocol.Event{Type: protocol.EventFinish})
		}
	}
}

func (f *L1FastTrack) buildMessages(intent IntentResult) []protocol.Message {
	systemPrompt := BuildL1SystemPrompt(f.basePrompt, "")

	messages := make([]protocol.Message, 0, len(intent.History)+2)
	messages = append(messages, protocol.SystemMessage(systemPrompt))
	messages = append(messages, intent.History...)
	messages = append(messages, protocol.UserMessage(intent.RawInput))
	return messages
}
