// Package todo persists the per-session task list the model maintains for
// itself during deep executions. The list is stored whole under one cache
// key per session and replaced atomically on every write.
package todo

import (
	"encoding/json"
	"fmt"
)

// Item statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Item priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Item is one todo entry. The model owns the contents; the store records
// whatever it writes, after normalization.
type Item struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func validPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// NormalizeItems coerces raw LLM-provided items into well-formed Items:
// ids become strings, missing priority defaults to medium. Items with a
// bad status or empty content are rejected.
func NormalizeItems(raw []map[string]any) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for i, entry := range raw {
		item := Item{Priority: PriorityMedium}

		switch id := entry["id"].(type) {
		case string:
			item.ID = id
		case float64:
			item.ID = fmt.Sprintf("%d", int64(id))
		case int:
			item.ID = fmt.Sprintf("%d", id)
		case nil:
			item.ID = fmt.Sprintf("%d", i+1)
		default:
			item.ID = fmt.Sprintf("%v", id)
		}

		content, _ := entry["content"].(string)
		if content == "" {
			return nil, fmt.Errorf("todo item %d: content is required", i)
		}
		item.Content = content

		status, _ := entry["status"].(string)
		if status == "" {
			status = StatusPending
		}
		if !validStatus(status) {
			return nil, fmt.Errorf("todo item %d: invalid status %q", i, status)
		}
		item.Status = status

		if priority, ok := entry["priority"].(string); ok && priority != "" {
			if !validPriority(priority) {
				return nil, fmt.Errorf("todo item %d: invalid priority %q", i, priority)
			}
			item.Priority = priority
		}

		items = append(items, item)
	}
	return items, nil
}

// IsActive reports whether the item still needs attention.
func (i Item) IsActive() bool {
	return i.Status == StatusPending || i.Status == StatusInProgress
}

// AnyActive reports whether any item in the list is pending or in progress.
func AnyActive(items []Item) bool {
	for _, item := range items {
		if item.IsActive() {
			return true
		}
	}
	return false
}

// Snapshot renders the list as the canonical JSON array shown to the model.
func Snapshot(items []Item) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// CountByStatus tallies items per status.
func CountByStatus(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Status]++
	}
	return counts
}
