// Package tables declares the destination table registry: one TableDefinition
// per destination table, covering field mappings, record filters, join-table
// expanders, and post-load integrity checks. Importing this package (for its
// side effects) populates the core registry; nothing here executes queries.
package tables

import (
	"strings"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

// cdnBase prefixes relative icon paths returned by the manifest.
const cdnBase = "https://www.bungie.net"

// lookupString reads a dot path as a trimmed string, "" when absent.
func lookupString(rec core.DefinitionRecord, path string) string {
	raw, ok := rec.Lookup(path)
	if !ok {
		return ""
	}
	s, ok := core.AsString(raw)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// lookupInt64 reads a dot path as an integer, 0/false when absent.
func lookupInt64(rec core.DefinitionRecord, path string) (int64, bool) {
	raw, ok := rec.Lookup(path)
	if !ok {
		return 0, false
	}
	return core.AsInt64(raw)
}

// hashList converts a decoded JSON array of numeric hashes to int64s.
// Non-numeric entries are dropped.
func hashList(raw any) []int64 {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(list))
	for _, entry := range list {
		if n, ok := core.AsInt64(entry); ok {
			out = append(out, n)
		}
	}
	return out
}

// objectList converts a decoded JSON array of objects, dropping anything else.
func objectList(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
