package reasoning

import (
	"context"

	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

// Thinker owns the LLM call of each ReAct step. With function calling,
// thought and action decision arrive in the same response: content is the
// thought, tool calls are the chosen actions.
type Thinker struct {
	llm llms.Client
}

func NewThinker(llm llms.Client) *Thinker {
	return &Thinker{llm: llm}
}

// Think runs one decision step. A nil tools slice marks the forced-summary
// step: the model is called without schemas and cannot request more work.
func (t *Thinker) Think(ctx context.Context, messages []protocol.Message, tools []llms.ToolDefinition) (ThinkResult, error) {
	var (
		resp *llms.ChatResponse
		err  error
	)
	if len(tools) > 0 {
		resp, err = t.llm.ChatWithTools(ctx, messages, tools)
	} else {
		resp, err = t.llm.Chat(ctx, messages)
	}
	if err != nil {
		return ThinkResult{}, err
	}

	return ThinkResult{
		Thought:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Usage:     resp.Usage,
		IsDone:    len(resp.ToolCalls) == 0,
	}, nil
}
