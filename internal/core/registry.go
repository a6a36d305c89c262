package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same key is already registered or if the
// definition's default view does not fit its own columns.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if _, err := def.NormalizeView(def.Default); err != nil {
		panic(fmt.Sprintf("table %s: invalid default view: %v", def.Info.Key, err))
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions sorted by key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// SetDefaultView replaces a table's default view, and its title when
// title is non-empty. The view is validated against the table's columns.
func SetDefaultView(key, title string, view ViewState) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	def, ok := registry[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}

	normalized, err := def.NormalizeView(view)
	if err != nil {
		return fmt.Errorf("default view for %s: %w", key, err)
	}
	if view.PageSize != 0 && !def.ValidPageSize(view.PageSize) {
		return fmt.Errorf("default view for %s: page size %d not in %v", key, view.PageSize, def.PageSizes)
	}

	def.Default = normalized
	if title != "" {
		def.Info.Title = title
	}
	registry[key] = def
	return nil
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
