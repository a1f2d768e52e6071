// Package core implements the ingestion pipeline: normalization of manifest
// definition records into relational rows, batched transactional loading,
// and post-insertion integrity validation. This package has no HTTP or UI
// dependencies and is driven by cmd/codexkeep.
package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Tx is the transactional subset the batch loader needs.
// pgx.Tx satisfies it.
type Tx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB combines direct access with the ability to open a batch transaction.
type DB interface {
	DBTX
	Begin(ctx context.Context) (Tx, error)
}

// PoolDB adapts *pgxpool.Pool to the DB interface.
type PoolDB struct {
	*pgxpool.Pool
}

// Begin opens a transaction on the pool.
func (p PoolDB) Begin(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}

// Diagnostics receives run-level error events and validation findings.
// Implementations must never fail the caller.
type Diagnostics interface {
	Error(stage, table, id, message string)
	Finding(table, id, kind, message string)
}

// NopDiagnostics discards all events. Useful in tests.
type NopDiagnostics struct{}

func (NopDiagnostics) Error(stage, table, id, message string)  {}
func (NopDiagnostics) Finding(table, id, kind, message string) {}

// DefinitionRecord is one upstream content entity as fetched from the
// manifest: a stable identifier plus the decoded definition object.
// Owned by the fetcher until handed to the normalizer; read-only afterward.
type DefinitionRecord struct {
	Hash   string
	Fields map[string]any
}

// Lookup resolves a dot path ("displayProperties.name") into the definition
// object. Returns false when any path segment is absent.
func (r DefinitionRecord) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = r.Fields
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FieldType represents the destination column type for a mapped field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldInt
	FieldFloat
	FieldBool
	FieldDate
	FieldHash // upstream integer identifier, stored as BIGINT
	FieldJSON // nested structure serialized opaquely
)

// FieldSpec declares how one destination column is populated from a
// definition record: source path, type coercion, and requiredness.
// The normalizer interprets these uniformly; tables are never hand-coded.
type FieldSpec struct {
	Column     string             // destination column name
	Path       string             // dot path into the source record ("" = constant Default)
	Type       FieldType          // destination type
	Required   bool               // missing or uncoercible value fails the record
	EnumValues []string           // valid values for FieldEnum
	Default    any                // value when the source field is absent (nil = NULL)
	Convert    func(any) (any, bool) // optional transformation applied to the raw value
}

// NormalizedRow is a flat record bound to exactly one destination table.
// Values parallel Columns. SourceID points back at the originating
// definition for diagnostics.
type NormalizedRow struct {
	Table    string
	Columns  []string
	Values   []any
	SourceID string
}

// ExpandFunc emits join-table rows derived from one definition record
// (e.g. an activity definition yielding ActivityDrops rows).
type ExpandFunc func(rec DefinitionRecord, gameID int64) []NormalizedRow

// CheckKind classifies a post-insertion column check.
type CheckKind int

const (
	CheckRequired  CheckKind = iota // column must be non-null, non-empty
	CheckEnum                       // column value must be in EnumValues
	CheckRange                      // numeric column must lie in [Min, Max]
	CheckDateOrder                  // column must be >= the After column
	CheckURL                        // column must be an https URL when present
)

// ColumnCheck declares one integrity rule evaluated against persisted rows.
type ColumnCheck struct {
	Column     string
	Kind       CheckKind
	EnumValues []string
	Min, Max   float64
	After      string // CheckDateOrder: the column this one must not precede
}

// ForeignKey declares a reference edge checked for resolvability after load.
type ForeignKey struct {
	Column       string
	ParentTable  string
	ParentColumn string
}

// TableDefinition contains everything needed to ingest one destination table:
// where its records come from, how they map to columns, and how the loaded
// rows are validated.
type TableDefinition struct {
	Name      string // destination table name
	Level     int    // dependency level; parents load before dependents
	Component string // manifest component ("" = rows arrive via a parent's Expand)

	Columns []string    // insert column order; derived from Fields when empty
	Fields  []FieldSpec // declarative mapping for component-fed tables

	Filter func(rec DefinitionRecord) bool // optional record predicate
	Expand ExpandFunc                      // optional join-table row emitter

	Checks      []ColumnCheck
	ForeignKeys []ForeignKey
}
