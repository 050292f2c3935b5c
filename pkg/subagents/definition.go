// Package subagents loads Markdown-defined sub-agents and dispatches
// delegated tasks to them: an isolated L3 run for local_react agents, a
// compiled-in executor for local_code, an external HTTP service for http.
package subagents

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
	definitionFile       = "agent.md"
	defaultMaxIterations = 15
	defaultTimeout       = 180 * time.Second
	defaultMaxDepth      = 2
)

// Agent backend types.
const (
	// TypeLocalReact runs the agent as an isolated ReAct loop: its own
	// system prompt, a restricted tool view, private budgets.
	TypeLocalReact = "local_react"
	// TypeLocalCode runs a compiled-in executor registered under the
	// definition's entry name.
	TypeLocalCode = "local_code"
	// TypeHTTP delegates to an external agent over HTTP.
	TypeHTTP = "http"
)

// Definition is one sub-agent parsed from agent.md frontmatter plus body.
//
// The type selects the backend and which fields apply: SystemPrompt and
// ToolFilter are local_react only (a nil filter inherits every tool),
// Entry is local_code only, Endpoint is http only.
type Definition struct {
	Name        string
	Description string
	Dir         string
	Type        string

	SystemPrompt string
	ToolFilter   []string
	Entry        string
	Endpoint     string

	MaxIterations int
	Timeout       time.Duration
	MaxDepth      int
}

type frontmatter struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Type          string   `yaml:"type"`
	Tools         []string `yaml:"tools"`
	Entry         string   `yaml:"entry"`
	Endpoint      string   `yaml:"endpoint"`
	MaxIterations int      `yaml:"max_iterations"`
	TimeoutMs     int      `yaml:"timeout_ms"`
	MaxDepth      int      `yaml:"max_depth"`
}

// LoadAgentDir loads one agent directory. Directories without an agent.md
// are not agents and yield (nil, nil).
func LoadAgentDir(dir string) (*Definition, error) {
	path := filepath.Join(dir, definitionFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(raw)
	if !strings.HasPrefix(content, "---") {
		return nil, fmt.Errorf("%s: missing YAML frontmatter", path)
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%s: frontmatter not terminated", path)
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, fmt.Errorf("%s: frontmatter YAML invalid: %w", path, err)
	}
	body := strings.TrimSpace(parts[2])

	if fm.Name == "" || fm.Description == "" {
		return nil, fmt.Errorf("%s: name and description are required", path)
	}

	agentType := fm.Type
	if agentType == "" {
		agentType = TypeLocalReact
	}
	switch agentType {
	case TypeLocalReact:
		if body == "" {
			slog.Warn("Agent body (system prompt) is empty", "path", path)
		}
	case TypeLocalCode:
		if fm.Entry == "" {
			return nil, fmt.Errorf("%s: local_code agents require an entry field", path)
		}
	case TypeHTTP:
		if fm.Endpoint == "" {
			return nil, fmt.Errorf("%s: http agents require an endpoint field", path)
		}
	default:
		return nil, fmt.Errorf("%s: unknown agent type %q (local_react, local_code, http)", path, agentType)
	}

	def := &Definition{
		Name:          fm.Name,
		Description:   fm.Description,
		Dir:           dir,
		Type:          agentType,
		SystemPrompt:  body,
		ToolFilter:    fm.Tools,
		Entry:         fm.Entry,
		Endpoint:      fm.Endpoint,
		MaxIterations: defaultMaxIterations,
		Timeout:       defaultTimeout,
		MaxDepth:      defaultMaxDepth,
	}
	if fm.MaxIterations > 0 {
		def.MaxIterations = fm.MaxIterations
	}
	if fm.TimeoutMs > 0 {
		def.Timeout = time.Duration(fm.TimeoutMs) * time.Millisecond
	}
	if fm.MaxDepth > 0 {
		def.MaxDepth = fm.MaxDepth
	}

	slog.Info("SubAgent loaded", "agent", def.Name, "type", def.Type, "max_depth", def.MaxDepth)
	return def, nil
}

// ScanDir loads every agent under root. Subdirectories starting with "_"
// are skipped; a malformed agent.md fails the scan so startup surfaces it.
func ScanDir(root string) ([]*Definition, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("SubAgents directory missing, skipping", "path", root)
			return nil, nil
		}
		return nil, err
	}

	var loaded []*Definition
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		def, err := LoadAgentDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		if def != nil {
			loaded = append(loaded, def)
		}
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Name < loaded[j].Name })
	slog.Info("SubAgents scanned", "root", root, "count", len(loaded))
	return loaded, nil
}
