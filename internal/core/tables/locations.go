package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Name:      "Locations",
		Level:     1,
		Component: "DestinyLocationDefinition",
		Filter: func(rec core.DefinitionRecord) bool {
			_, ok := rec.Lookup("displayProperties")
			return ok
		},
		Fields: []core.FieldSpec{
			{Column: "LocationID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "LocationType", Path: "locationType", Type: core.FieldText, Default: "Unknown"},
			{Column: "ParentLocationID", Path: "parentLocationHash", Type: core.FieldHash},
		},
		Checks: []core.ColumnCheck{
			{Column: "LocationID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "ParentLocationID", ParentTable: "Locations", ParentColumn: "LocationID"},
		},
	})
}
