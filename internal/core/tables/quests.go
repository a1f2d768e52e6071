package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Name:      "Quests",
		Level:     2,
		Component: "DestinyQuestDefinition",
		Fields: []core.FieldSpec{
			{Column: "QuestID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
			{Column: "QuestType", Path: "questType", Type: core.FieldText, Default: "Unknown"},
			{Column: "RewardID", Path: "rewardItemHash", Type: core.FieldHash},
		},
		Checks: []core.ColumnCheck{
			{Column: "QuestID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "RewardID", ParentTable: "Items", ParentColumn: "ItemID"},
		},
	})
}
