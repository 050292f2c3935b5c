package tools

import (
	"context"
	"fmt"

	"github.com/tactus-ai/tactus/pkg/agentctx"
	"github.com/tactus-ai/tactus/pkg/todo"
)

// todoWriteDescription spells out the three call sites of the write
// discipline; it is the rule layer of the todo mechanism.
const todoWriteDescription = `Create or update the current session's todo list. Takes the complete list and replaces it wholesale (never incremental).
Must be called at these moments:
1. Before starting a multi-step task: create all items (status: pending)
2. When starting a step: immediately mark it in_progress (only one at a time)
3. After finishing a step: immediately mark it completed; never batch updates
Parameters: todos - the full task list (id, content, status, priority)`

const todoReadDescription = `Read the current session's todo list. Call it proactively and often, especially:
- at the start of a conversation, to check for unfinished items
- before starting a new task, to confirm priorities
- when unsure what to do next
- every few messages, to confirm overall progress
This tool takes no parameters.`

// TodoWriteTool replaces the session's todo list and echoes a snapshot so
// the model immediately sees the state it just wrote.
type TodoWriteTool struct {
	store todo.Store
}

var _ Tool = (*TodoWriteTool)(nil)

func NewTodoWriteTool(store todo.Store) *TodoWriteTool {
	return &TodoWriteTool{store: store}
}

func (t *TodoWriteTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "todo_write",
		Description: todoWriteDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"todos": map[string]any{
					"type":        "array",
					"description": "The complete todo list (full replacement, not incremental)",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":       map[string]any{"type": "string"},
							"content":  map[string]any{"type": "string"},
							"status":   map[string]any{"type": "string", "enum": []string{todo.StatusPending, todo.StatusInProgress, todo.StatusCompleted, todo.StatusCancelled}},
							"priority": map[string]any{"type": "string", "enum": []string{todo.PriorityHigh, todo.PriorityMedium, todo.PriorityLow}},
						},
						"required": []string{"content", "status"},
					},
				},
			},
			"required": []string{"todos"},
		},
		Tiers: []Tier{TierL3},
		Risk:  RiskWrite,
	}
}

func (t *TodoWriteTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	rawList, _ := args["todos"].([]any)
	rawItems := make([]map[string]any, 0, len(rawList))
	for _, entry := range rawList {
		if m, ok := entry.(map[string]any); ok {
			rawItems = append(rawItems, m)
		}
	}

	items, err := todo.NormalizeItems(rawItems)
	if err != nil {
		return Failf("invalid todos: %v", err), nil
	}

	sessionID := agentctx.SessionID(ctx)
	if err := t.store.Set(ctx, sessionID, items); err != nil {
		if ctx.Err() != nil {
			return ToolResult{}, ctx.Err()
		}
		return Failf("todo store write failed: %v", err), nil
	}

	active := 0
	for _, item := range items {
		if item.IsActive() {
			active++
		}
	}
	return Success(map[string]any{
		"title":    fmt.Sprintf("%d in progress", active),
		"todos":    items,
		"snapshot": todo.Snapshot(items),
	}), nil
}

// TodoReadTool returns the current snapshot with a counts summary.
type TodoReadTool struct {
	store todo.Store
}

var _ Tool = (*TodoReadTool)(nil)

func NewTodoReadTool(store todo.Store) *TodoReadTool {
	return &TodoReadTool{store: store}
}

func (t *TodoReadTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "todo_read",
		Description: todoReadDescription,
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Tiers:       []Tier{TierL3},
		Risk:        RiskRead,
	}
}

func (t *TodoReadTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	sessionID := agentctx.SessionID(ctx)
	items, err := t.store.Get(ctx, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return ToolResult{}, ctx.Err()
		}
		return Failf("todo store read failed: %v", err), nil
	}

	counts := todo.CountByStatus(items)
	title := fmt.Sprintf("%d in progress, %d pending, %d completed (%d total)",
		counts[todo.StatusInProgress], counts[todo.StatusPending], counts[todo.StatusCompleted], len(items))

	return Success(map[string]any{
		"title":    title,
		"todos":    items,
		"snapshot": todo.Snapshot(items),
	}), nil
}
