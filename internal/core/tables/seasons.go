package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Name:      "Seasons",
		Level:     1,
		Component: "DestinySeasonDefinition",
		Fields: []core.FieldSpec{
			{Column: "SeasonID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "SeasonNumber", Path: "seasonNumber", Type: core.FieldInt},
			{Column: "StartDate", Path: "startDate", Type: core.FieldDate},
			{Column: "EndDate", Path: "endDate", Type: core.FieldDate},
		},
		Checks: []core.ColumnCheck{
			{Column: "SeasonID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
			{Column: "EndDate", Kind: core.CheckDateOrder, After: "StartDate"},
		},
	})

	// Items stamped with a season link. Sourced from the same component as
	// Items; the download is cached, so this costs no extra fetch.
	core.Register(core.TableDefinition{
		Name:      "SeasonalItems",
		Level:     2,
		Component: "DestinyInventoryItemDefinition",
		Filter: func(rec core.DefinitionRecord) bool {
			_, ok := rec.Lookup("seasonHash")
			return ok
		},
		Fields: []core.FieldSpec{
			{Column: "SeasonID", Path: "seasonHash", Type: core.FieldHash, Required: true},
			{Column: "ItemID", Path: "hash", Type: core.FieldHash, Required: true},
		},
		Checks: []core.ColumnCheck{
			{Column: "SeasonID", Kind: core.CheckRequired},
			{Column: "ItemID", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "SeasonID", ParentTable: "Seasons", ParentColumn: "SeasonID"},
			{Column: "ItemID", ParentTable: "Items", ParentColumn: "ItemID"},
		},
	})
}
