package tools

import (
	"context"
	"log/slog"
	"sort"

	"github.com/tactus-ai/tactus/pkg/llms"
)

// RestrictedView is the physical allow-list overlay handed to sub-agents.
// It copies tool references from the parent registry at construction and
// dispatches them itself, so a name outside the allow-list is rejected
// here and never reaches the parent — even when the model guesses a tool
// that does exist there.
type RestrictedView struct {
	allowed map[string]Tool
}

var _ Executor = (*RestrictedView)(nil)

// NewRestrictedView builds the overlay. Allow-list entries the parent does
// not know are dropped with a warning. A nil allow list yields an empty
// view; callers wanting full access pass the registry itself instead.
func NewRestrictedView(parent *Registry, allowList []string) *RestrictedView {
	view := &RestrictedView{allowed: make(map[string]Tool, len(allowList))}
	for _, name := range allowList {
		tool, ok := parent.Get(name)
		if !ok {
			slog.Warn("Allow-list references unknown tool, dropping", "tool", name)
			continue
		}
		view.allowed[name] = tool
	}
	return view
}

func (v *RestrictedView) Has(name string) bool {
	_, ok := v.allowed[name]
	return ok
}

// Names lists the allowed tool names in sorted order.
func (v *RestrictedView) Names() []string {
	names := make([]string, 0, len(v.allowed))
	for name := range v.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *RestrictedView) SchemasFor(tier Tier) []llms.ToolDefinition {
	var defs []llms.ToolDefinition
	for _, name := range v.Names() {
		desc := v.allowed[name].Descriptor()
		if desc.InTier(tier) {
			defs = append(defs, desc.Definition())
		}
	}
	return defs
}

// ExecuteTool dispatches an allowed tool, or returns a permission error
// result without delegating anywhere.
func (v *RestrictedView) ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := v.allowed[name]
	if !ok {
		slog.Warn("Blocked tool call outside allow-list", "tool", name)
		return Failf("PermissionError: tool %q is not authorized for this agent", name).ToJSON(), nil
	}
	return runBounded(ctx, tool, name, args)
}
