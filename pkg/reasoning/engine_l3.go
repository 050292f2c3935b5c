package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tactus-ai/tactus/pkg/agentctx"
	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/todo"
	"github.com/tactus-ai/tactus/pkg/tools"
)

// L3ReActEngine orchestrates Thinker, Actor, and Observer. The
// orchestrator itself stays thin: every concrete concern (LLM calls, tool
// dispatch, state tracking) lives in the component that owns it.
//
// The todo mechanism has three layers here:
//   - rule layer: the todo discipline in the L3 system prompt
//   - perception layer: todo_write / todo_read echo full snapshots
//   - intervention layer: injectTodoReminder refreshes the live state in
//     the system message before every Think
type L3ReActEngine struct {
	llm     llms.Client
	tools   tools.Executor
	todos   todo.Store
	config  L3Config
	thinker *Thinker
	actor   *Actor
}

func NewL3ReActEngine(llm llms.Client, executor tools.Executor, todos todo.Store, config L3Config) *L3ReActEngine {
	return &L3ReActEngine{
		llm:     llm,
		tools:   executor,
		todos:   todos,
		config:  config.withDefaults(),
		thinker: NewThinker(llm),
		actor:   NewActor(executor),
	}
}

// Execute runs the blocking ReAct loop: scope the session id, assemble
// the initial messages, then cycle breaker check, todo injection, Think,
// Act until the model answers or a budget trips.
func (e *L3ReActEngine) Execute(ctx context.Context, intent IntentResult, sessionID string) (*ExecutionResult, error) {
	ctx = agentctx.WithSessionID(ctx, sessionID)

	observer := NewObserver(e.config)
	observer.Start()

	messages := e.buildInitialMessages(intent)
	toolSchemas := e.tools.SchemasFor(tools.TierL3)

	var think ThinkResult

	for step := 0; step < e.config.MaxIterations; step++ {
		if stop, reason := observer.ShouldStop(); stop {
			return e.gracefulDegrade(observer, reason), nil
		}

		messages = e.injectTodoReminder(ctx, messages)

		// The last step goes out without tools, forcing a summary.
		useTools := toolSchemas
		if step == e.config.MaxIterations-1 {
			useTools = nil
		}
		var err error
		think, err = e.thinker.Think(ctx, messages, useTools)
		if err != nil {
			return nil, err
		}
		observer.OnThink(step, think)

		if think.IsDone {
			break
		}

		act, err := e.actor.Act(ctx, think)
		if err != nil {
			return nil, err
		}
		observer.OnAct(step, act)

		messages = append(messages, act.Messages...)
	}

	return e.buildResult(think, observer), nil
}

// ExecuteStream runs the same loop and narrates it as events:
// intermediate steps arrive as thought / tool_call / tool_result, the
// final answer as a delta, then a terminal finish. Engine failures arrive
// as a terminal error event. The channel closes when the run ends.
func (e *L3ReActEngine) ExecuteStream(ctx context.Context, intent IntentResult, sessionID string) <-chan protocol.Event {
	events := make(chan protocol.Event)
	go func() {
		defer close(events)
		e.streamLoop(agentctx.WithSessionID(ctx, sessionID), intent, events)
	}()
	return events
}

func (e *L3ReActEngine) streamLoop(ctx context.Context, intent IntentResult, events chan<- protocol.Event) {
	emit := func(ev protocol.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	observer := NewObserver(e.config)
	observer.Start()

	messages := e.buildInitialMessages(intent)
	toolSchemas := e.tools.SchemasFor(tools.TierL3)

	var think ThinkResult

	for step := 0; step < e.config.MaxIterations; step++ {
		if stop, reason := observer.ShouldStop(); stop {
			degraded := e.gracefulDegrade(observer, reason)
			emit(protocol.DeltaEvent(degraded.Reply))
			emit(protocol.Event{
				Type:          protocol.EventFinish,
				Iterations:    observer.Trace().StepCount(),
				TokensUsed:    observer.Usage().TotalTokens,
				IsDegraded:    true,
				DegradeReason: reason,
			})
			return
		}

		messages = e.injectTodoReminder(ctx, messages)

		useTools := toolSchemas
		if step == e.config.MaxIterations-1 {
			useTools = nil
		}
		var err error
		think, err = e.thinker.Think(ctx, messages, useTools)
		if err != nil {
			emit(protocol.ErrorEvent(err.Error()))
			return
		}
		observer.OnThink(step, think)

		if think.Thought != "" {
			emit(protocol.Event{Type: protocol.EventThought, Step: step, Content: think.Thought})
		}

		if think.IsDone {
			if think.Thought != "" {
				emit(protocol.DeltaEvent(think.Thought))
			}
			emit(protocol.Event{
				Type:       protocol.EventFinish,
				Iterations: observer.Trace().StepCount(),
				TokensUsed: observer.Usage().TotalTokens,
			})
			return
		}

		act, err := e.actor.Act(ctx, think)
		if err != nil {
			emit(protocol.ErrorEvent(err.Error()))
			return
		}
		observer.OnAct(step, act)

		for _, obs := range act.Observations {
			emit(protocol.Event{Type: protocol.EventToolCall, Step: step, Name: obs.ToolName, Args: obs.Arguments})
			emit(protocol.Event{Type: protocol.EventToolResult, Step: step, Name: obs.ToolName, Content: obs.Result})
		}

		messages = append(messages, act.Messages...)
	}

	// Loop exhausted without a done step: the last thought is the answer.
	if think.Thought != "" {
		emit(protocol.DeltaEvent(think.Thought))
	}
	emit(protocol.Event{
		Type:       protocol.EventFinish,
		Iterations: observer.Trace().StepCount(),
		TokensUsed: observer.Usage().TotalTokens,
	})
}

// ExecuteRaw runs the loop on pre-assembled messages. Sub-agent dispatch
// uses this entry: the caller has already built the isolated child
// context (system prompt plus task) and scoped the ambient context, so
// there is no session setup and no todo injection here.
func (e *L3ReActEngine) ExecuteRaw(ctx context.Context, messages []protocol.Message) (*ExecutionResult, error) {
	observer := NewObserver(e.config)
	observer.Start()

	toolSchemas := e.tools.SchemasFor(tools.TierL3)

	var think ThinkResult

	for step := 0; step < e.config.MaxIterations; step++ {
		if stop, reason := observer.ShouldStop(); stop {
			return e.gracefulDegrade(observer, reason), nil
		}

		useTools := toolSchemas
		if step == e.config.MaxIterations-1 {
			useTools = nil
		}
		var err error
		think, err = e.thinker.Think(ctx, messages, useTools)
		if err != nil {
			return nil, err
		}
		observer.OnThink(step, think)

		if think.IsDone {
			break
		}

		act, err := e.actor.Act(ctx, think)
		if err != nil {
			return nil, err
		}
		observer.OnAct(step, act)
		messages = append(messages, act.Messages...)
	}

	return e.buildResult(think, observer), nil
}

// injectTodoReminder refreshes the todo block at the end of the system
// message before each Think. With active items the full list is appended
// after the marker; with none the block is stripped back off. Truncating
// at the marker first makes the operation idempotent. Only the system
// message is touched, never a new message appended, which keeps providers
// with strict role alternation happy. Runs with no session id or a
// non-system head leave the messages untouched.
func (e *L3ReActEngine) injectTodoReminder(ctx context.Context, messages []protocol.Message) []protocol.Message {
	sessionID := agentctx.SessionID(ctx)
	if sessionID == "" || len(messages) == 0 || messages[0].Role != protocol.RoleSystem {
		return messages
	}

	items, err := e.todos.Get(ctx, sessionID)
	if err != nil {
		slog.Warn("Todo reminder skipped, store read failed", "error", err)
		return messages
	}

	base := messages[0].Content
	if idx := strings.Index(base, todoReminderMarker); idx >= 0 {
		base = base[:idx]
	}

	if !todo.AnyActive(items) {
		if messages[0].Content == base {
			return messages
		}
		messages[0] = protocol.SystemMessage(base)
		return messages
	}

	snapshot, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return messages
	}
	block := fmt.Sprintf(
		"%s\nCurrent todo list (auto-synced; check progress and keep going):\n```json\n%s\n```\n%s",
		todoReminderMarker, snapshot, todoReminderEndMarker)
	messages[0] = protocol.SystemMessage(base + block)
	return messages
}

// buildInitialMessages assembles system prompt, recent history, and the
// user turn. History is clipped to the last ten messages.
func (e *L3ReActEngine) buildInitialMessages(intent IntentResult) []protocol.Message {
	systemPrompt := BuildL3SystemPrompt(intent.RawInput, intent.UserGoal, e.config.MaxIterations)

	history := intent.History
	if len(history) > 10 {
		history = history[len(history)-10:]
	}

	messages := make([]protocol.Message, 0, len(history)+2)
	messages = append(messages, protocol.SystemMessage(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, protocol.UserMessage(intent.RawInput))
	return messages
}

func (e *L3ReActEngine) buildResult(think ThinkResult, observer *Observer) *ExecutionResult {
	usage := observer.Usage()
	return &ExecutionResult{
		Reply:          think.Thought,
		ToolCalls:      observer.Trace().ToolCallRecords(),
		Source:         RouteDeepL3,
		DurationMS:     int(observer.Elapsed().Milliseconds()),
		ReasoningTrace: observer.Trace().Steps(),
		Iterations:     observer.Trace().StepCount(),
		TokenUsage:     &usage,
	}
}

// gracefulDegrade builds the answer when a budget trips: a summary
// stitched from the observations already collected, with no further LLM
// call spent on it.
func (e *L3ReActEngine) gracefulDegrade(observer *Observer, reason string) *ExecutionResult {
	summary := observer.Trace().SummarizeObservations()

	var reply string
	if summary != "" {
		reply = fmt.Sprintf(
			"Processing limits were reached, so here is a summary of what I gathered so far:\n\n%s\n\n"+
				"For a deeper analysis, please narrow the question and ask again.", summary)
	} else {
		reply = "Sorry, this question exceeded the current processing limits. " +
			"Please simplify it or split it into smaller questions and try again."
	}

	usage := observer.Usage()
	slog.Warn("L3 graceful degradation",
		"reason", reason,
		"iterations", observer.Trace().StepCount(),
		"tokens", usage.TotalTokens,
		"elapsed_ms", observer.Elapsed().Milliseconds())

	return &ExecutionResult{
		Reply:          reply,
		ToolCalls:      observer.Trace().ToolCallRecords(),
		Source:         RouteDeepL3,
		DurationMS:     int(observer.Elapsed().Milliseconds()),
		ReasoningTrace: observer.Trace().Steps(),
		Iterations:     observer.Trace().StepCount(),
		TokenUsage:     &usage,
		IsDegraded:     true,
		DegradeReason:  reason,
	}
}
