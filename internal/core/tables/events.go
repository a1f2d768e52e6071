package tables

import "github.com/Into-The-Grey/CodexKeep/internal/core"

var eventRewardColumns = []string{"GameID", "EventID", "ItemID"}

func init() {
	core.Register(core.TableDefinition{
		Name:      "Events",
		Level:     1,
		Component: "DestinyEventCardDefinition",
		Fields: []core.FieldSpec{
			{Column: "EventID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
			{Column: "StartDate", Path: "startTime", Type: core.FieldDate},
			{Column: "EndDate", Path: "endTime", Type: core.FieldDate},
		},
		Expand: expandEventRewards,
		Checks: []core.ColumnCheck{
			{Column: "EventID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
			{Column: "EndDate", Kind: core.CheckDateOrder, After: "StartDate"},
		},
	})

	core.Register(core.TableDefinition{
		Name:    "EventRewards",
		Level:   2,
		Columns: eventRewardColumns,
		Checks: []core.ColumnCheck{
			{Column: "EventID", Kind: core.CheckRequired},
			{Column: "ItemID", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "EventID", ParentTable: "Events", ParentColumn: "EventID"},
			{Column: "ItemID", ParentTable: "Items", ParentColumn: "ItemID"},
		},
	})
}

// expandEventRewards emits one EventRewards row per reward item on the event
// card.
func expandEventRewards(rec core.DefinitionRecord, gameID int64) []core.NormalizedRow {
	eventID, ok := lookupInt64(rec, "hash")
	if !ok {
		return nil
	}

	raw, ok := rec.Lookup("rewards")
	if !ok {
		return nil
	}

	var rows []core.NormalizedRow
	for _, reward := range objectList(raw) {
		itemID, ok := core.AsInt64(reward["itemHash"])
		if !ok {
			continue
		}
		rows = append(rows, core.NormalizedRow{
			Table:    "EventRewards",
			Columns:  eventRewardColumns,
			Values:   []any{gameID, eventID, itemID},
			SourceID: rec.Hash,
		})
	}
	return rows
}
