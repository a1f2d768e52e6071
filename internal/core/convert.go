package core

// convert.go provides type conversion from decoded manifest JSON to
// PostgreSQL types. Upstream values arrive as the loose shapes encoding/json
// produces (string, float64, bool, map, slice, nil); the As* helpers narrow
// them and the ToPg* helpers produce pgtype values with Valid=false for
// absent input so the database stores NULLs.

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Date layouts accepted for season/event bounds. The platform emits RFC 3339;
// plain dates appear in hand-maintained components.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// AsString narrows a decoded JSON value to a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsInt64 narrows a decoded JSON value to an integer.
// JSON numbers decode as float64; numeric strings are accepted because
// upstream hashes appear in both forms.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			// Upstream hashes are unsigned 32-bit and can exceed int32.
			u, uerr := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
			if uerr != nil {
				return 0, false
			}
			return int64(u), true
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// AsFloat64 narrows a decoded JSON value to a float.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool narrows a decoded JSON value to a bool.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsTime parses a date or timestamp string. Values already scanned as
// time.Time pass through unchanged.
func AsTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt8 wraps an integer in pgtype.Int8.
func ToPgInt8(i int64) pgtype.Int8 {
	return pgtype.Int8{Int64: i, Valid: true}
}

// ToPgFloat8 wraps a float in pgtype.Float8.
func ToPgFloat8(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgBool wraps a bool in pgtype.Bool.
func ToPgBool(b bool) pgtype.Bool {
	return pgtype.Bool{Bool: b, Valid: true}
}

// ToPgTimestamp wraps a time in pgtype.Timestamptz.
func ToPgTimestamp(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// ToPgJSON serializes a nested structure opaquely for a free-form column.
func ToPgJSON(v any) pgtype.Text {
	if v == nil {
		return pgtype.Text{Valid: false}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: string(data), Valid: true}
}

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
