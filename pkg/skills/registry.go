package skills

import (
	"log/slog"
	"time"

	"github.com/tactus-ai/tactus/pkg/registry"
)

// CatalogEntry is one (name, description) pair for dynamic tool schemas.
type CatalogEntry struct {
	Name        string
	Description string
}

// Registry is the in-memory skill index. Exactly one skill_call meta-tool
// fronts it; skills are never registered as individual tools, keeping the
// model-visible schema size constant in the number of skills.
type Registry struct {
	skills *registry.BaseRegistry[*Skill]
}

func NewRegistry() *Registry {
	return &Registry{skills: registry.NewBaseRegistry[*Skill]()}
}

// FromDirectories scans the given roots in order. A skill loaded later
// overrides an earlier one of the same name, so user directories listed
// after the builtin directory take precedence.
func FromDirectories(dirs []string) (*Registry, error) {
	r := NewRegistry()
	for _, dir := range dirs {
		loaded, err := ScanDir(dir)
		if err != nil {
			return nil, err
		}
		for _, skill := range loaded {
			r.Register(skill)
		}
	}
	return r, nil
}

// Register adds or replaces a skill.
func (r *Registry) Register(skill *Skill) {
	if _, exists := r.skills.Get(skill.Name); exists {
		slog.Info("Skill overridden by later directory", "skill", skill.Name)
	}
	r.skills.Set(skill.Name, skill)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.skills.Get(name)
	return ok
}

func (r *Registry) Get(name string) (*Skill, bool) {
	return r.skills.Get(name)
}

func (r *Registry) Names() []string {
	return r.skills.Names()
}

func (r *Registry) Count() int {
	return r.skills.Count()
}

// Catalog lists (name, description) pairs in name order, for skill_call's
// dynamically built description and enum.
func (r *Registry) Catalog() []CatalogEntry {
	skills := r.skills.List()
	catalog := make([]CatalogEntry, len(skills))
	for i, skill := range skills {
		catalog[i] = CatalogEntry{Name: skill.Name, Description: skill.Description}
	}
	return catalog
}

// Render returns the instruction payload for the named skill, or false
// when the skill is unknown.
func (r *Registry) Render(name string) (string, bool) {
	skill, ok := r.skills.Get(name)
	if !ok {
		return "", false
	}
	return skill.RenderToolResult(), true
}

// ScriptPath resolves a script from the allow-list. The script name is the
// file stem without extension.
func (r *Registry) ScriptPath(skillName, scriptName string) (string, bool) {
	skill, ok := r.skills.Get(skillName)
	if !ok {
		return "", false
	}
	want := skillName + "_" + scriptName
	for _, script := range skill.Scripts {
		if script.AllowName == want {
			return script.Path, true
		}
	}
	return "", false
}

// ScriptNames lists the valid script stems of a skill; false when the
// skill is unknown.
func (r *Registry) ScriptNames(skillName string) ([]string, bool) {
	skill, ok := r.skills.Get(skillName)
	if !ok {
		return nil, false
	}
	prefix := skillName + "_"
	names := make([]string, 0, len(skill.Scripts))
	for _, script := range skill.Scripts {
		names = append(names, script.AllowName[len(prefix):])
	}
	return names, true
}

// Timeout returns the skill's script timeout, or the default for unknown
// skills.
func (r *Registry) Timeout(skillName string) time.Duration {
	if skill, ok := r.skills.Get(skillName); ok {
		return skill.Timeout
	}
	return defaultTimeout
}

// MaxTimeout is the largest script timeout across loaded skills, floored
// at the default. skill_exec declares its dispatch timeout above this so
// a slow script always hits its own budget first.
func (r *Registry) MaxTimeout() time.Duration {
	longest := defaultTimeout
	for _, skill := range r.skills.List() {
		if skill.Timeout > longest {
			longest = skill.Timeout
		}
	}
	return longest
}
