// Package skills loads Markdown-defined skills and serves their instruction
// bodies to the model on demand.
//
// A skill is a directory holding a skill.md file (YAML frontmatter with
// name/description plus a Markdown body) and an optional scripts/
// subdirectory. The frontmatter feeds the skill_call tool catalog; the body
// is injected as a tool result when the model invokes the skill; scripts
// are recorded in an allow-list for skill_exec and are never registered as
// tools themselves.
package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	definitionFile = "skill.md"
	defaultTimeout = 60 * time.Second
)

// Script is one allow-listed script of a skill. The allow-list name is
// "<skill>_<stem>", e.g. skill "github" + search_repos.py →
// "github_search_repos".
type Script struct {
	AllowName string
	Path      string
}

// Skill is a fully loaded skill definition. Immutable after load.
type Skill struct {
	Name        string
	Description string
	Body        string
	Dir         string
	Scripts     []Script
	Timeout     time.Duration
}

// RenderToolResult formats the instruction payload delivered to the model
// as the result of skill_call. The model continues its normal tool loop
// against these instructions; there is no separate interpreter.
func (s *Skill) RenderToolResult() string {
	return fmt.Sprintf("[Skill instructions - %s]\n\n---\n\n%s", s.Name, s.Body)
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// parseFrontmatter splits "---\n<yaml>\n---\n<body>" into its parts.
func parseFrontmatter(raw string) (frontmatter, string, error) {
	var fm frontmatter
	if !strings.HasPrefix(raw, "---") {
		return fm, "", fmt.Errorf("missing YAML frontmatter")
	}
	parts := strings.SplitN(raw, "---", 3)
	if len(parts) < 3 {
		return fm, "", fmt.Errorf("frontmatter not terminated")
	}
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return fm, "", fmt.Errorf("frontmatter YAML invalid: %w", err)
	}
	return fm, strings.TrimSpace(parts[2]), nil
}

// LoadSkillDir loads one skill directory. Directories without a skill.md
// are not skills and yield (nil, nil).
func LoadSkillDir(dir string) (*Skill, error) {
	path := filepath.Join(dir, definitionFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fm, body, err := parseFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if fm.Name == "" || fm.Description == "" {
		return nil, fmt.Errorf("%s: name and description are required", path)
	}

	timeout := defaultTimeout
	if fm.TimeoutMs > 0 {
		timeout = time.Duration(fm.TimeoutMs) * time.Millisecond
	}

	skill := &Skill{
		Name:        fm.Name,
		Description: fm.Description,
		Body:        body,
		Dir:         dir,
		Timeout:     timeout,
	}

	scriptsDir := filepath.Join(dir, "scripts")
	entries, err := os.ReadDir(scriptsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			skill.Scripts = append(skill.Scripts, Script{
				AllowName: fm.Name + "_" + stem,
				Path:      filepath.Join(scriptsDir, entry.Name()),
			})
		}
		sort.Slice(skill.Scripts, func(i, j int) bool {
			return skill.Scripts[i].AllowName < skill.Scripts[j].AllowName
		})
	}

	slog.Debug("Skill loaded", "skill", skill.Name, "scripts", len(skill.Scripts))
	return skill, nil
}

// ScanDir loads every skill under root. Subdirectories starting with "_"
// are skipped; a malformed skill.md fails the scan so startup surfaces it.
func ScanDir(root string) ([]*Skill, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Skills directory missing, skipping", "path", root)
			return nil, nil
		}
		return nil, err
	}

	var loaded []*Skill
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		skill, err := LoadSkillDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		if skill != nil {
			loaded = append(loaded, skill)
		}
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Name < loaded[j].Name })
	slog.Info("Skills scanned", "root", root, "count", len(loaded))
	return loaded, nil
}
