package tables

import (
	"strings"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

func init() {
	core.Register(core.TableDefinition{
		Name:      "Vendors",
		Level:     2,
		Component: "DestinyVendorDefinition",
		Fields: []core.FieldSpec{
			{Column: "VendorID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "VendorType", Path: "vendorCategoryIdentifier", Type: core.FieldText,
				Convert: vendorType, Default: "NPC"},
			{Column: "LocationID", Path: "vendorLocationHash", Type: core.FieldHash},
		},
		Checks: []core.ColumnCheck{
			{Column: "VendorID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
			{Column: "VendorType", Kind: core.CheckEnum, EnumValues: []string{"Faction", "NPC"}},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "LocationID", ParentTable: "Locations", ParentColumn: "LocationID"},
		},
	})
}

// vendorType classifies a vendor as faction-aligned or a plain NPC from its
// category identifier.
func vendorType(raw any) (any, bool) {
	ident, ok := core.AsString(raw)
	if !ok {
		return nil, false
	}
	if strings.Contains(strings.ToLower(ident), "faction") {
		return "Faction", true
	}
	return "NPC", true
}
