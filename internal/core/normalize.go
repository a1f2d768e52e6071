package core

// normalize.go maps upstream definition records into normalized rows using
// each table's declared field-mapping specification. A record either yields
// its full row set (primary row plus any join-table expansions) or nothing
// at all: a required-field failure skips the record, never half of it.

import (
	"fmt"
	"strings"
)

// Normalize maps one definition record into rows for def's destination table
// and any join tables its Expand hook feeds. Returns (nil, nil) when the
// record is filtered out, and (nil, *MappingError) when a required field is
// missing or uncoercible.
func Normalize(rec DefinitionRecord, def TableDefinition, gameID int64) ([]NormalizedRow, error) {
	if def.Filter != nil && !def.Filter(rec) {
		return nil, nil
	}

	values := make([]any, 0, len(def.Fields)+1)
	values = append(values, gameID)

	for _, spec := range def.Fields {
		v, err := fieldValue(rec, spec, def.Name)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	rows := []NormalizedRow{{
		Table:    def.Name,
		Columns:  def.Columns,
		Values:   values,
		SourceID: rec.Hash,
	}}

	if def.Expand != nil {
		rows = append(rows, def.Expand(rec, gameID)...)
	}

	return rows, nil
}

// fieldValue resolves one field spec against the record.
func fieldValue(rec DefinitionRecord, spec FieldSpec, table string) (any, error) {
	raw, found := rec.Lookup(spec.Path)

	if found && spec.Convert != nil {
		raw, found = spec.Convert(raw)
	}

	if !found {
		if spec.Required {
			return nil, &MappingError{Table: table, Hash: rec.Hash, Field: spec.Column, Reason: "required field missing"}
		}
		return spec.Default, nil
	}

	v, ok := coerce(raw, spec)
	if !ok {
		if spec.Required {
			return nil, &MappingError{
				Table: table, Hash: rec.Hash, Field: spec.Column,
				Reason: fmt.Sprintf("cannot coerce %v to %s", raw, fieldTypeName(spec.Type)),
			}
		}
		return spec.Default, nil
	}
	return v, nil
}

// coerce converts a raw source value to the destination column type.
func coerce(raw any, spec FieldSpec) (any, bool) {
	switch spec.Type {
	case FieldText:
		s, ok := AsString(raw)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		return ToPgText(s), true

	case FieldEnum:
		s, ok := AsString(raw)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if len(spec.EnumValues) > 0 && !containsFold(spec.EnumValues, s) {
			return nil, false
		}
		return ToPgText(s), true

	case FieldInt, FieldHash:
		i, ok := AsInt64(raw)
		if !ok {
			return nil, false
		}
		return ToPgInt8(i), true

	case FieldFloat:
		f, ok := AsFloat64(raw)
		if !ok {
			return nil, false
		}
		return ToPgFloat8(f), true

	case FieldBool:
		b, ok := AsBool(raw)
		if !ok {
			return nil, false
		}
		return ToPgBool(b), true

	case FieldDate:
		t, ok := AsTime(raw)
		if !ok {
			return nil, false
		}
		return ToPgTimestamp(t), true

	case FieldJSON:
		v := ToPgJSON(raw)
		return v, v.Valid

	default:
		return nil, false
	}
}

// containsFold reports whether values contains s, case-insensitively.
func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldInt:
		return "integer"
	case FieldFloat:
		return "float"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	case FieldHash:
		return "hash"
	case FieldJSON:
		return "json"
	default:
		return "value"
	}
}
