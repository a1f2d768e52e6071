package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

// Enemy archetypes come from the activity type component; activity phases
// reference them through activityTypeHash.
func init() {
	core.Register(core.TableDefinition{
		Name:      "EnemyTypes",
		Level:     1,
		Component: "DestinyActivityTypeDefinition",
		Fields: []core.FieldSpec{
			{Column: "TypeID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
		},
		Checks: []core.ColumnCheck{
			{Column: "TypeID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
		},
	})
}
