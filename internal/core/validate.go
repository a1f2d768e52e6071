package core

// validate.go re-reads loaded tables and checks column constraints and
// cross-table references. Findings are advisory: they are recorded, never
// fatal, and a run with findings still completes.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Finding is one integrity problem discovered after load.
type Finding struct {
	Table   string
	RowID   string
	Kind    string
	Message string
}

// Finding kinds, stable across runs so diagnostics stay grep-able.
const (
	FindingMissingRequired     = "missing-required"
	FindingInvalidEnum         = "invalid-enum"
	FindingUnresolvedReference = "unresolved-reference"
	FindingOutOfRange          = "out-of-range"
	FindingDateOrder           = "date-order"
)

// Validator runs post-load integrity checks against the store.
type Validator struct {
	db   DBTX
	diag Diagnostics

	// parent key sets, built lazily and shared across tables
	keys map[string]map[string]struct{}
}

// NewValidator creates a validator backed by db.
func NewValidator(db DBTX, d Diagnostics) *Validator {
	if d == nil {
		d = NopDiagnostics{}
	}
	return &Validator{
		db:   db,
		diag: d,
		keys: make(map[string]map[string]struct{}),
	}
}

// ValidateTable checks every row of one table and records each finding.
func (v *Validator) ValidateTable(ctx context.Context, def TableDefinition) ([]Finding, error) {
	if len(def.Checks) == 0 && len(def.ForeignKeys) == 0 {
		return nil, nil
	}

	cols := validationColumns(def)
	query := fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(quoteAll(cols), ", "), quoteIdentifier(def.Name))

	rows, err := v.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", def.Name, err)
	}
	defer rows.Close()

	parents := make(map[string]map[string]struct{}, len(def.ForeignKeys))
	for _, fk := range def.ForeignKeys {
		set, err := v.keySet(ctx, fk.ParentTable, fk.ParentColumn)
		if err != nil {
			return nil, err
		}
		parents[fk.ParentTable] = set
	}

	var findings []Finding
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", def.Name, err)
		}
		values := make(map[string]any, len(cols))
		for i, col := range cols {
			values[col] = raw[i]
		}
		findings = append(findings, CheckRow(def, values, parents)...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", def.Name, err)
	}

	for _, f := range findings {
		v.diag.Finding(f.Table, f.RowID, f.Kind, f.Message)
	}
	slog.Info("table validated", "table", def.Name, "findings", len(findings))
	return findings, nil
}

// CheckRow evaluates a single row against a table's checks and foreign keys.
// parents holds the referenced tables' key sets, canonicalized with keyString.
func CheckRow(def TableDefinition, values map[string]any, parents map[string]map[string]struct{}) []Finding {
	rowID := keyString(values["RowID"])
	var findings []Finding

	add := func(kind, message string) {
		findings = append(findings, Finding{
			Table:   def.Name,
			RowID:   rowID,
			Kind:    kind,
			Message: message,
		})
	}

	for _, check := range def.Checks {
		val := values[check.Column]
		switch check.Kind {
		case CheckRequired:
			if isEmpty(val) {
				add(FindingMissingRequired, fmt.Sprintf("%s is empty", check.Column))
			}
		case CheckEnum:
			s, ok := AsString(val)
			if !ok || s == "" {
				continue
			}
			if !containsFold(check.EnumValues, s) {
				add(FindingInvalidEnum,
					fmt.Sprintf("%s: %q not in {%s}", check.Column, s, strings.Join(check.EnumValues, ", ")))
			}
		case CheckRange:
			f, ok := AsFloat64(val)
			if !ok {
				continue
			}
			if f < check.Min || f > check.Max {
				add(FindingOutOfRange,
					fmt.Sprintf("%s: %g outside [%g, %g]", check.Column, f, check.Min, check.Max))
			}
		case CheckDateOrder:
			end, okEnd := AsTime(val)
			start, okStart := AsTime(values[check.After])
			if okStart && okEnd && end.Before(start) {
				add(FindingDateOrder,
					fmt.Sprintf("%s %s precedes %s %s",
						check.Column, end.Format(time.RFC3339), check.After, start.Format(time.RFC3339)))
			}
		case CheckURL:
			s, ok := AsString(val)
			if !ok || s == "" {
				continue
			}
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				add(FindingOutOfRange, fmt.Sprintf("%s: %q is not an absolute URL", check.Column, s))
			}
		}
	}

	for _, fk := range def.ForeignKeys {
		val := values[fk.Column]
		if isEmpty(val) {
			// NULL references are allowed; required-ness is a column check.
			continue
		}
		set := parents[fk.ParentTable]
		if _, ok := set[keyString(val)]; !ok {
			add(FindingUnresolvedReference,
				fmt.Sprintf("%s %v has no match in %s.%s", fk.Column, val, fk.ParentTable, fk.ParentColumn))
		}
	}

	return findings
}

// keySet loads the distinct values of one parent column, cached per table.
func (v *Validator) keySet(ctx context.Context, table, column string) (map[string]struct{}, error) {
	cacheKey := table + "." + column
	if set, ok := v.keys[cacheKey]; ok {
		return set, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdentifier(column), quoteIdentifier(table))
	rows, err := v.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("key set %s: %w", cacheKey, err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var val any
		if err := rows.Scan(&val); err != nil {
			return nil, fmt.Errorf("key set %s: %w", cacheKey, err)
		}
		if val == nil {
			continue
		}
		set[keyString(val)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("key set %s: %w", cacheKey, err)
	}

	v.keys[cacheKey] = set
	return set, nil
}

// keyString canonicalizes a key value so int64 and string identifiers compare
// consistently regardless of driver scan type.
func keyString(val any) string {
	if n, ok := AsInt64(val); ok {
		return fmt.Sprintf("%d", n)
	}
	if s, ok := AsString(val); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

func isEmpty(val any) bool {
	if val == nil {
		return true
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// validationColumns is RowID plus every column a check or foreign key reads.
func validationColumns(def TableDefinition) []string {
	seen := map[string]struct{}{"RowID": {}}
	cols := []string{"RowID"}
	addCol := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		cols = append(cols, c)
	}
	for _, check := range def.Checks {
		addCol(check.Column)
		addCol(check.After)
	}
	for _, fk := range def.ForeignKeys {
		addCol(fk.Column)
	}
	return cols
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdentifier(c)
	}
	return out
}
