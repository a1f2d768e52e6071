package core

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func itemDef() TableDefinition {
	return TableDefinition{
		Name:      "Items",
		Level:     1,
		Component: "DestinyInventoryItemDefinition",
		Columns:   []string{"GameID", "ItemID", "Name", "Rarity"},
		Fields: []FieldSpec{
			{Column: "ItemID", Path: "hash", Type: FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: FieldText, Required: true},
			{Column: "Rarity", Path: "inventory.tierTypeName", Type: FieldEnum,
				EnumValues: []string{"Common", "Exotic"}, Default: "Unknown"},
		},
	}
}

func itemRecord(name string) DefinitionRecord {
	return DefinitionRecord{
		Hash: "1363886209",
		Fields: map[string]any{
			"hash": float64(1363886209),
			"displayProperties": map[string]any{
				"name": name,
			},
			"inventory": map[string]any{
				"tierTypeName": "Exotic",
			},
		},
	}
}

// ----------------------------------------------------------------------------
// Normalize Tests
// ----------------------------------------------------------------------------

func TestNormalizeFullRecord(t *testing.T) {
	rows, err := Normalize(itemRecord("Gjallarhorn"), itemDef(), 7)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.Table != "Items" || row.SourceID != "1363886209" {
		t.Errorf("row identity = %s/%s", row.Table, row.SourceID)
	}
	if len(row.Values) != 4 {
		t.Fatalf("got %d values, want 4", len(row.Values))
	}
	if row.Values[0] != int64(7) {
		t.Errorf("GameID = %v, want 7", row.Values[0])
	}
	if id, ok := row.Values[1].(pgtype.Int8); !ok || id.Int64 != 1363886209 {
		t.Errorf("ItemID = %v", row.Values[1])
	}
	if name, ok := row.Values[2].(pgtype.Text); !ok || name.String != "Gjallarhorn" {
		t.Errorf("Name = %v", row.Values[2])
	}
}

func TestNormalizeRequiredFieldMissing(t *testing.T) {
	rec := itemRecord("Gjallarhorn")
	delete(rec.Fields, "displayProperties")

	_, err := Normalize(rec, itemDef(), 7)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}

	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("error type = %T, want *MappingError", err)
	}
	if mapErr.Table != "Items" || mapErr.Field != "Name" {
		t.Errorf("MappingError = %+v", mapErr)
	}
}

func TestNormalizeOptionalFieldDefaults(t *testing.T) {
	rec := itemRecord("Gjallarhorn")
	rec.Fields["inventory"] = map[string]any{"tierTypeName": "Mythic"}

	rows, err := Normalize(rec, itemDef(), 7)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// Off-enum tier falls back to the declared default instead of failing
	// the record.
	if got := rows[0].Values[3]; got != "Unknown" {
		t.Errorf("Rarity = %v, want Unknown", got)
	}
}

func TestNormalizeFilterSkipsRecord(t *testing.T) {
	def := itemDef()
	def.Filter = func(DefinitionRecord) bool { return false }

	rows, err := Normalize(itemRecord("Gjallarhorn"), def, 7)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rows != nil {
		t.Errorf("filtered record produced %d rows", len(rows))
	}
}

func TestNormalizeExpandRows(t *testing.T) {
	def := itemDef()
	def.Expand = func(rec DefinitionRecord, gameID int64) []NormalizedRow {
		return []NormalizedRow{{
			Table:    "SeasonalItems",
			Columns:  []string{"GameID", "SeasonID", "ItemID"},
			Values:   []any{gameID, int64(22), int64(1363886209)},
			SourceID: rec.Hash,
		}}
	}

	rows, err := Normalize(itemRecord("Gjallarhorn"), def, 7)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want primary + expansion", len(rows))
	}
	if rows[1].Table != "SeasonalItems" {
		t.Errorf("expansion table = %s", rows[1].Table)
	}
	if rows[1].Values[0] != int64(7) {
		t.Errorf("expansion GameID = %v", rows[1].Values[0])
	}
}

func TestNormalizeCaseInsensitiveEnum(t *testing.T) {
	rec := itemRecord("Gjallarhorn")
	rec.Fields["inventory"] = map[string]any{"tierTypeName": "exotic"}

	rows, err := Normalize(rec, itemDef(), 7)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// Enum matching is case-insensitive; the source casing is preserved.
	if rarity, ok := rows[0].Values[3].(pgtype.Text); !ok || rarity.String != "exotic" {
		t.Errorf("Rarity = %v", rows[0].Values[3])
	}
}
