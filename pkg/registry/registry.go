// Package registry provides a generic, concurrency-safe name → item store
// used by the tool, skill, and sub-agent catalogs.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// RegistryError describes a failed registry operation.
type RegistryError struct {
	Action  string
	Name    string
	Message string
}

func (e *RegistryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("registry %s %q: %s", e.Action, e.Name, e.Message)
	}
	return fmt.Sprintf("registry %s: %s", e.Action, e.Message)
}

// BaseRegistry is a generic registry keyed by name. Reads are safe for
// concurrent use; registration is expected to finish before serving.
type BaseRegistry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewBaseRegistry[T any]() *BaseRegistry[T] {
	return &BaseRegistry[T]{items: make(map[string]T)}
}

// Register adds an item under name. Names must be unique per registry.
func (r *BaseRegistry[T]) Register(name string, item T) error {
	if name == "" {
		return &RegistryError{Action: "register", Message: "name cannot be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return &RegistryError{Action: "register", Name: name, Message: "already registered"}
	}
	r.items[name] = item
	return nil
}

// Get returns the item registered under name.
func (r *BaseRegistry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// List returns all registered items in name order.
func (r *BaseRegistry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]T, 0, len(names))
	for _, name := range names {
		items = append(items, r.items[name])
	}
	return items
}

// Names returns all registered names in sorted order.
func (r *BaseRegistry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set registers or replaces the item under name. Used by loaders where a
// later directory overrides an earlier one.
func (r *BaseRegistry[T]) Set(name string, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
}

func (r *BaseRegistry[T]) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[name]; !ok {
		return false
	}
	delete(r.items, name)
	return true
}

func (r *BaseRegistry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *BaseRegistry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]T)
}
