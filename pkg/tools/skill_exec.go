package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tactus-ai/tactus/pkg/skills"
)

// Script protocol: arguments as JSON on stdin, result JSON on stdout,
// logs on stderr, exit code zero on success.

// SkillExecTool runs a script that belongs to a loaded skill. Scripts are
// never tools themselves; the (skill, script) pair is validated against
// the registry's allow-list before anything executes, so a fabricated path
// can't escape the skill directory.
type SkillExecTool struct {
	registry *skills.Registry
}

var _ Tool = (*SkillExecTool)(nil)

func NewSkillExecTool(registry *skills.Registry) *SkillExecTool {
	return &SkillExecTool{registry: registry}
}

type skillExecArgs struct {
	SkillName string         `json:"skill_name" jsonschema:"required,description=Skill name; must match the skill_call invoked earlier"`
	Script    string         `json:"script" jsonschema:"required,description=Script name without extension, e.g. search_repos"`
	Args      map[string]any `json:"args,omitempty" jsonschema:"description=Argument object passed to the script via stdin as JSON"`
}

func (t *SkillExecTool) Descriptor() Descriptor {
	return Descriptor{
		Name: "skill_exec",
		Description: "Run a script belonging to a skill. Only usable after skill_call returned " +
			"the skill's instructions. skill_name must match that skill, script is the script " +
			"name without extension, args is the argument object the script expects.",
		Parameters: SchemaFor(&skillExecArgs{}),
		Tiers:      []Tier{TierL3},
		// The dispatch fail-safe sits above every skill's script budget, so
		// a slow script fails on its own timeout with the specific error.
		Timeout: t.registry.MaxTimeout() + 30*time.Second,
		Risk:    RiskWrite,
	}
}

func (t *SkillExecTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	skillName, _ := args["skill_name"].(string)
	scriptName, _ := args["script"].(string)
	scriptArgs, _ := args["args"].(map[string]any)
	skillName = strings.TrimSpace(skillName)
	scriptName = strings.TrimSpace(scriptName)

	if skillName == "" || scriptName == "" {
		return Fail("skill_name and script are both required"), nil
	}

	scriptPath, ok := t.registry.ScriptPath(skillName, scriptName)
	if !ok {
		allowed, known := t.registry.ScriptNames(skillName)
		if !known {
			return Failf("unknown skill: %s", skillName), nil
		}
		return Failf("skill %q has no script %q, valid scripts: %v", skillName, scriptName, allowed), nil
	}

	return runScript(ctx, scriptPath, scriptArgs, t.registry.Timeout(skillName))
}

// interpreterFor picks the command line for a script by extension.
// Extensionless scripts run directly and must be executable.
func interpreterFor(scriptPath string) []string {
	switch filepath.Ext(scriptPath) {
	case ".py":
		return []string{"python3", scriptPath}
	case ".sh":
		return []string{"bash", scriptPath}
	default:
		return []string{scriptPath}
	}
}

func runScript(ctx context.Context, scriptPath string, scriptArgs map[string]any, timeout time.Duration) (ToolResult, error) {
	argsJSON, err := json.Marshal(scriptArgs)
	if err != nil {
		return Failf("failed to encode script arguments: %v", err), nil
	}

	scriptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := interpreterFor(scriptPath)
	cmd := exec.CommandContext(scriptCtx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(argsJSON)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		// The surrounding execution was cancelled, not the script budget.
		return ToolResult{}, ctx.Err()
	}
	if errors.Is(scriptCtx.Err(), context.DeadlineExceeded) {
		return Failf("script timeout (%.0fs)", timeout.Seconds()), nil
	}
	if runErr != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = runErr.Error()
		}
		slog.Error("Skill script failed", "script", scriptPath, "stderr", errMsg)
		return Failf("script execution failed: %s", errMsg), nil
	}

	output := strings.TrimSpace(stdout.String())
	var resultData map[string]any
	if err := json.Unmarshal([]byte(output), &resultData); err != nil {
		slog.Error("Skill script produced non-JSON output", "script", scriptPath)
		return Fail("script produced non-JSON output"), nil
	}

	if status, _ := resultData["status"].(string); status == "error" {
		reason, _ := resultData["error"].(string)
		if reason == "" {
			reason = "script reported an error"
		}
		return Fail(reason), nil
	}
	data := make(map[string]any, len(resultData))
	for k, v := range resultData {
		if k != "status" {
			data[k] = v
		}
	}
	return Success(data), nil
}
