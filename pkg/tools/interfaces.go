// Package tools implements the typed tool catalog: the registry with tier
// filtering and time-bounded dispatch, the restricted view handed to
// sub-agents, and the built-in and meta tools.
package tools

import (
	"context"
	"time"

	"github.com/tactus-ai/tactus/pkg/llms"
)

// Tier labels control which execution engine sees a tool's schema.
type Tier string

const (
	TierL1 Tier = "L1"
	TierL3 Tier = "L3"
)

// RiskLevel classifies a tool's blast radius. Informational today; the
// transport's approval flow keys off it.
type RiskLevel string

const (
	RiskRead     RiskLevel = "read"
	RiskSuggest  RiskLevel = "suggest"
	RiskWrite    RiskLevel = "write"
	RiskCritical RiskLevel = "critical"
)

// Descriptor is a tool's self-description. Parameters hold a JSON-schema
// object. Meta-tools recompute their descriptor on every call so catalogs
// (skills, sub-agents) stay current in the emitted schema.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]any
	Tiers       []Tier
	Timeout     time.Duration
	Risk        RiskLevel
}

// InTier reports whether the descriptor carries the given tier label.
func (d Descriptor) InTier(tier Tier) bool {
	for _, t := range d.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Definition converts the descriptor to the schema handed to the model.
func (d Descriptor) Definition() llms.ToolDefinition {
	return llms.ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// Tool is one executable unit. Execute returns a ToolResult for anything
// the model can reason about; the error return is reserved for failures
// that must propagate, context cancellation above all.
type Tool interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, args map[string]any) (ToolResult, error)
}

// Executor is the dispatch surface the engines run against. Both the full
// registry and a restricted view implement it.
type Executor interface {
	// ExecuteTool dispatches by name and returns the canonical result
	// JSON. The error return carries only propagating failures.
	ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error)

	// SchemasFor returns definitions for every tool visible at the tier.
	SchemasFor(tier Tier) []llms.ToolDefinition

	// Has reports whether name is dispatchable through this executor.
	Has(name string) bool
}
