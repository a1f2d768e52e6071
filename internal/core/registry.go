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
// Panics if a table with the same name is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Name))
	}

	// Populate Columns from FieldSpecs if not set. Every content table
	// carries the owning game as its first column.
	if len(def.Columns) == 0 && len(def.Fields) > 0 {
		def.Columns = make([]string, 0, len(def.Fields)+1)
		def.Columns = append(def.Columns, "GameID")
		for _, spec := range def.Fields {
			def.Columns = append(def.Columns, spec.Column)
		}
	}

	registry[def.Name] = def
}

// Get returns a table definition by name.
// Returns false if not found.
func Get(name string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered table definitions in processing order:
// by dependency level, component-fed tables before expander-fed tables
// within a level (expanders only emit rows for tables at or above their own
// level, so producers always run first), then by name.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		iFed := result[i].Component == ""
		jFed := result[j].Component == ""
		if iFed != jFed {
			return jFed
		}
		return result[i].Name < result[j].Name
	})

	return result
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
