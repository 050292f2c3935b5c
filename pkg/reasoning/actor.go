package reasoning

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/tools"
)

// Actor executes the tool calls a ThinkResult decided on. Calls in one
// step fan out in parallel; results are merged back in request order so
// the conversation stays deterministic. Meta-tools (skill_call,
// subagent_call, todo_write) need no special handling here, they are
// ordinary registry entries.
type Actor struct {
	executor tools.Executor
}

func NewActor(executor tools.Executor) *Actor {
	return &Actor{executor: executor}
}

// Act runs every tool call of the step and formats the follow-up
// messages: the assistant message echoing the calls, then one tool
// message per call. The error return carries only propagating failures,
// context cancellation above all; tool-level errors are already inside
// the result JSON.
func (a *Actor) Act(ctx context.Context, think ThinkResult) (ActResult, error) {
	if len(think.ToolCalls) == 0 {
		return ActResult{}, nil
	}

	assistantMsg := protocol.Message{
		Role:      protocol.RoleAssistant,
		Content:   think.Thought,
		ToolCalls: think.ToolCalls,
	}

	type outcome struct {
		result     string
		durationMS int
	}
	outcomes := make([]outcome, len(think.ToolCalls))

	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range think.ToolCalls {
		g.Go(func() error {
			start := time.Now()
			result, err := a.executor.ExecuteTool(gctx, tc.Name, tc.Arguments)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{
				result:     result,
				durationMS: int(time.Since(start).Milliseconds()),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ActResult{}, err
	}

	observations := make([]Observation, 0, len(think.ToolCalls))
	messages := make([]protocol.Message, 0, len(think.ToolCalls)+1)
	messages = append(messages, assistantMsg)

	for i, tc := range think.ToolCalls {
		observations = append(observations, Observation{
			ToolName:   tc.Name,
			ToolCallID: tc.ID,
			Arguments:  tc.Arguments,
			Result:     outcomes[i].result,
			DurationMS: outcomes[i].durationMS,
		})
		messages = append(messages, protocol.ToolMessage(tc.ID, tc.Name, outcomes[i].result))

		slog.Info("L3 tool executed", "tool", tc.Name, "duration_ms", outcomes[i].durationMS)
	}

	return ActResult{Observations: observations, Messages: messages}, nil
}
