package subagents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tactus-ai/tactus/pkg/agentctx"
	"github.com/tactus-ai/tactus/pkg/httpclient"
	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/reasoning"
	"github.com/tactus-ai/tactus/pkg/todo"
	"github.com/tactus-ai/tactus/pkg/tools"
)

// SubAgentCallTool is the single dispatch point for every sub-agent. Like
// skill_call it fronts the whole catalog with one schema, rebuilding the
// description and enum from the registry on each emission.
//
// Delegation depth is bounded by the ambient agent depth: a sub-agent
// scope starts at parent depth plus one with a cleared session id, so
// delegation chains terminate and a child never touches the parent
// conversation's todo list.
type SubAgentCallTool struct {
	agents  *Registry
	tools   *tools.Registry
	llm     llms.Client
	todos   todo.Store
	httpCli *httpclient.Client
}

var _ tools.Tool = (*SubAgentCallTool)(nil)

func NewSubAgentCallTool(agents *Registry, toolRegistry *tools.Registry, llm llms.Client, todos todo.Store) *SubAgentCallTool {
	return &SubAgentCallTool{
		agents:  agents,
		tools:   toolRegistry,
		llm:     llm,
		todos:   todos,
		// Delegation POSTs are not idempotent, so never retry them; the
		// per-call deadline comes from the agent definition, not here.
		httpCli: httpclient.New(
			httpclient.WithTimeout(10*time.Minute),
			httpclient.WithRetryStrategy(func(int) httpclient.RetryStrategy { return httpclient.NoRetry }),
		),
	}
}

func (t *SubAgentCallTool) Descriptor() tools.Descriptor {
	catalog := t.agents.Catalog()

	var b strings.Builder
	b.WriteString("Delegate a self-contained task to a specialist sub-agent. The agent works ")
	b.WriteString("in an isolated context with its own reasoning loop and returns a summary report.\n")
	b.WriteString("Available agents (name: description):\n")
	names := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		b.WriteString("  - " + entry.Name + ": " + entry.Description + "\n")
		names = append(names, entry.Name)
	}
	if len(names) == 0 {
		b.WriteString("  (no agents loaded)\n")
		// Keep the enum non-empty; some providers reject empty enums.
		names = []string{"__no_agent__"}
	}

	return tools.Descriptor{
		Name:        "subagent_call",
		Description: strings.TrimRight(b.String(), "\n"),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_name": map[string]any{
					"type":        "string",
					"description": "Name of the sub-agent to delegate to",
					"enum":        names,
				},
				"task": map[string]any{
					"type":        "string",
					"description": "Complete, self-contained description of the task, including all context the agent needs",
				},
			},
			"required": []string{"agent_name", "task"},
		},
		Tiers: []tools.Tier{tools.TierL3},
		// Sub-agent runs carry their own budgets; the registry fail-safe
		// must sit above the longest of them.
		Timeout: 5 * time.Minute,
		Risk:    tools.RiskWrite,
	}
}

func (t *SubAgentCallTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	agentName, _ := args["agent_name"].(string)
	task, _ := args["task"].(string)
	if strings.TrimSpace(agentName) == "" || strings.TrimSpace(task) == "" {
		return tools.Fail("agent_name and task are both required"), nil
	}

	def, ok := t.agents.Get(agentName)
	if !ok {
		return tools.Failf("unknown sub-agent: %s, check the agent_name argument", agentName), nil
	}

	depth := agentctx.Depth(ctx)
	if depth >= def.MaxDepth {
		return tools.Failf(
			"sub-agent delegation depth %d reached the limit %d for %q; handle the task directly instead of delegating further",
			depth, def.MaxDepth, def.Name), nil
	}

	slog.Info("SubAgent dispatch", "agent", def.Name, "type", def.Type, "depth", depth+1)

	childCtx := agentctx.ChildScope(ctx)
	switch def.Type {
	case TypeLocalCode:
		return t.executeLocalCode(childCtx, def, task)
	case TypeHTTP:
		return t.executeHTTP(childCtx, def, task)
	default:
		return t.executeLocalReact(childCtx, def, task)
	}
}

// executeLocalReact runs the agent as a private L3 loop: its own system
// prompt, the allow-listed tool view, and budgets from its definition.
func (t *SubAgentCallTool) executeLocalReact(ctx context.Context, def *Definition, task string) (tools.ToolResult, error) {
	var executor tools.Executor = t.tools
	if len(def.ToolFilter) > 0 {
		executor = tools.NewRestrictedView(t.tools, def.ToolFilter)
	}

	config := reasoning.L3Config{
		MaxIterations: def.MaxIterations,
		Timeout:       def.Timeout,
		MaxLLMCalls:   def.MaxIterations * 2,
	}
	engine := reasoning.NewL3ReActEngine(t.llm, executor, t.todos, config)

	messages := []protocol.Message{
		protocol.SystemMessage(def.SystemPrompt),
		protocol.UserMessage(task),
	}

	result, err := engine.ExecuteRaw(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return tools.ToolResult{}, ctx.Err()
		}
		slog.Error("SubAgent run failed", "agent", def.Name, "error", err)
		return tools.Failf("sub-agent %q failed: %v", def.Name, err), nil
	}

	tokens := 0
	if result.TokenUsage != nil {
		tokens = result.TokenUsage.TotalTokens
	}
	slog.Info("SubAgent complete", "agent", def.Name,
		"iterations", result.Iterations, "degraded", result.IsDegraded)

	return tools.Success(map[string]any{
		"agent":       def.Name,
		"report":      result.Reply,
		"iterations":  result.Iterations,
		"tokens_used": tokens,
		"is_degraded": result.IsDegraded,
	}), nil
}

func (t *SubAgentCallTool) executeLocalCode(ctx context.Context, def *Definition, task string) (tools.ToolResult, error) {
	executor, ok := lookupCodeExecutor(def.Entry)
	if !ok {
		return tools.Failf("no code executor registered for entry %q", def.Entry), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, def.Timeout)
	defer cancel()

	report, err := executor.Execute(runCtx, task)
	if err != nil {
		if ctx.Err() != nil {
			return tools.ToolResult{}, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return tools.Failf("sub-agent %q timed out (%.0fs)", def.Name, def.Timeout.Seconds()), nil
		}
		slog.Error("SubAgent executor failed", "agent", def.Name, "error", err)
		return tools.Failf("sub-agent %q failed: %v", def.Name, err), nil
	}

	slog.Info("SubAgent complete", "agent", def.Name)
	return tools.Success(map[string]any{
		"agent":  def.Name,
		"report": report,
	}), nil
}

// executeHTTP delegates to an external agent: POST {"task": ...} to the
// endpoint, read the report from the reply or result field.
func (t *SubAgentCallTool) executeHTTP(ctx context.Context, def *Definition, task string) (tools.ToolResult, error) {
	body, _ := json.Marshal(map[string]string{"task": task})

	runCtx, cancel := context.WithTimeout(ctx, def.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, def.Endpoint, bytes.NewReader(body))
	if err != nil {
		return tools.Failf("external agent %q request build failed: %v", def.Name, err), nil
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	// The client hands back the response alongside the error on non-2xx
	// statuses; inspect it first so the model sees the status, not a
	// generic transport failure.
	resp, err := t.httpCli.Do(req)
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		resp.Body.Close()
		return tools.Failf("external agent %q returned status %d", def.Name, resp.StatusCode), nil
	}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return tools.ToolResult{}, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return tools.Failf("external agent %q timed out (%.0fs)", def.Name, def.Timeout.Seconds()), nil
		}
		slog.Error("SubAgent request failed", "agent", def.Name, "error", err)
		return tools.Failf("external agent %q request failed: %v", def.Name, err), nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return tools.Failf("external agent %q response read failed: %v", def.Name, err), nil
	}

	var parsed map[string]any
	report := ""
	if err := json.Unmarshal(payload, &parsed); err == nil {
		if v, ok := parsed["reply"].(string); ok && v != "" {
			report = v
		} else if v, ok := parsed["result"].(string); ok && v != "" {
			report = v
		}
	}
	if report == "" {
		report = string(payload)
	}

	slog.Info("SubAgent complete", "agent", def.Name, "endpoint", def.Endpoint)
	return tools.Success(map[string]any{
		"agent":  def.Name,
		"report": report,
	}), nil
}
