package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

// The lore component carries both book records and entry records; entries are
// the ones stamped with a bookHash. Both tables read the same cached
// download.
func init() {
	core.Register(core.TableDefinition{
		Name:      "LoreBooks",
		Level:     1,
		Component: "DestinyLoreDefinition",
		Filter: func(rec core.DefinitionRecord) bool {
			_, ok := rec.Lookup("bookHash")
			return !ok
		},
		Fields: []core.FieldSpec{
			{Column: "BookID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Title", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Subtitle", Path: "subtitle", Type: core.FieldText},
		},
		Checks: []core.ColumnCheck{
			{Column: "BookID", Kind: core.CheckRequired},
			{Column: "Title", Kind: core.CheckRequired},
		},
	})

	core.Register(core.TableDefinition{
		Name:      "LoreEntries",
		Level:     2,
		Component: "DestinyLoreDefinition",
		Filter: func(rec core.DefinitionRecord) bool {
			_, ok := rec.Lookup("bookHash")
			return ok
		},
		Fields: []core.FieldSpec{
			{Column: "EntryID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "BookID", Path: "bookHash", Type: core.FieldHash, Required: true},
			{Column: "Title", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Content", Path: "displayProperties.description", Type: core.FieldText},
		},
		Checks: []core.ColumnCheck{
			{Column: "EntryID", Kind: core.CheckRequired},
			{Column: "Title", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "BookID", ParentTable: "LoreBooks", ParentColumn: "BookID"},
		},
	})
}
