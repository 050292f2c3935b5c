package subagents

import (
	"log/slog"

	"github.com/tactus-ai/tactus/pkg/registry"
)

// CatalogEntry is one (name, description) pair for the subagent_call
// tool's dynamically built description and enum.
type CatalogEntry struct {
	Name        string
	Description string
}

// Registry is the in-memory sub-agent index. Exactly one subagent_call
// meta-tool fronts it, so the model-visible schema stays constant in the
// number of agents.
type Registry struct {
	agents *registry.BaseRegistry[*Definition]
}

func NewRegistry() *Registry {
	return &Registry{agents: registry.NewBaseRegistry[*Definition]()}
}

// FromDirectories scans the given roots in order. An agent loaded later
// overrides an earlier one of the same name.
func FromDirectories(dirs []string) (*Registry, error) {
	r := NewRegistry()
	for _, dir := range dirs {
		loaded, err := ScanDir(dir)
		if err != nil {
			return nil, err
		}
		for _, def := range loaded {
			r.Register(def)
		}
	}
	return r, nil
}

// Register adds or replaces an agent definition.
func (r *Registry) Register(def *Definition) {
	if _, exists := r.agents.Get(def.Name); exists {
		slog.Info("SubAgent overridden by later directory", "agent", def.Name)
	}
	r.agents.Set(def.Name, def)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.agents.Get(name)
	return ok
}

func (r *Registry) Get(name string) (*Definition, bool) {
	return r.agents.Get(name)
}

func (r *Registry) Names() []string {
	return r.agents.Names()
}

func (r *Registry) Count() int {
	return r.agents.Count()
}

// Catalog lists (name, description) pairs in name order.
func (r *Registry) Catalog() []CatalogEntry {
	agents := r.agents.List()
	catalog := make([]CatalogEntry, len(agents))
	for i, def := range agents {
		catalog[i] = CatalogEntry{Name: def.Name, Description: def.Description}
	}
	return catalog
}
