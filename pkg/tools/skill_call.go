package tools

import (
	"context"
	"strings"

	"github.com/tactus-ai/tactus/pkg/skills"
)

// SkillCallTool is the single entry point for every loaded skill. One
// meta-tool fronts the whole catalog, so the model-visible schema stays
// constant in the number of skills: the description and skill_name enum
// are rebuilt from the registry at schema emission time. Invoking it
// returns the skill's instruction body; the model then works through the
// instructions with its ordinary tool loop.
type SkillCallTool struct {
	registry *skills.Registry
}

var _ Tool = (*SkillCallTool)(nil)

func NewSkillCallTool(registry *skills.Registry) *SkillCallTool {
	return &SkillCallTool{registry: registry}
}

func (t *SkillCallTool) Descriptor() Descriptor {
	catalog := t.registry.Catalog()

	var b strings.Builder
	b.WriteString("Run a high-level skill workflow. The call returns the skill's detailed ")
	b.WriteString("instructions; follow them step by step with further tool calls.\n")
	b.WriteString("Available skills (name: description):\n")
	names := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		b.WriteString("  - " + entry.Name + ": " + entry.Description + "\n")
		names = append(names, entry.Name)
	}
	if len(names) == 0 {
		b.WriteString("  (no skills loaded)\n")
		// Keep the enum non-empty; some providers reject empty enums.
		names = []string{"__no_skill__"}
	}

	return Descriptor{
		Name:        "skill_call",
		Description: strings.TrimRight(b.String(), "\n"),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"skill_name": map[string]any{
					"type":        "string",
					"description": "Name of the skill to run",
					"enum":        names,
				},
			},
			"required": []string{"skill_name"},
		},
		Tiers: []Tier{TierL3},
		Risk:  RiskRead,
	}
}

func (t *SkillCallTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	skillName, _ := args["skill_name"].(string)

	instructions, ok := t.registry.Render(skillName)
	if !ok {
		return Failf("unknown skill: %s, check the skill_name argument", skillName), nil
	}
	return Success(map[string]any{"instructions": instructions}), nil
}
