package tables

import (
	"fmt"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

// defaultDropRate applies when a reward entry carries no dropChance.
const defaultDropRate = 1.0

var (
	enemyColumns            = []string{"GameID", "EnemyID", "Name", "TypeID", "ZoneID", "Health", "DamageType"}
	activityDropColumns     = []string{"GameID", "ActivityID", "ItemID", "DropRate"}
	enemyDropColumns        = []string{"GameID", "EnemyID", "ItemID", "DropRate"}
	seasonalActivityColumns = []string{"GameID", "SeasonID", "ActivityID"}
)

func init() {
	core.Register(core.TableDefinition{
		Name:      "Activities",
		Level:     2,
		Component: "DestinyActivityDefinition",
		Fields: []core.FieldSpec{
			{Column: "ActivityID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
			{Column: "ActivityTypeID", Path: "activityTypeHash", Type: core.FieldHash},
			{Column: "LocationID", Path: "locationHash", Type: core.FieldHash},
			{Column: "LightLevel", Path: "activityLightLevel", Type: core.FieldInt},
			{Column: "Modifiers", Path: "modifiers", Type: core.FieldJSON},
		},
		Expand: expandActivity,
		Checks: []core.ColumnCheck{
			{Column: "ActivityID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "ActivityTypeID", ParentTable: "EnemyTypes", ParentColumn: "TypeID"},
			{Column: "LocationID", ParentTable: "Locations", ParentColumn: "LocationID"},
		},
	})

	// Enemies are not a manifest component; they are derived from activity
	// encounter phases.
	core.Register(core.TableDefinition{
		Name:    "Enemies",
		Level:   2,
		Columns: enemyColumns,
		Checks: []core.ColumnCheck{
			{Column: "EnemyID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
			{Column: "Health", Kind: core.CheckRange, Min: 0, Max: 1 << 31},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "TypeID", ParentTable: "EnemyTypes", ParentColumn: "TypeID"},
			{Column: "ZoneID", ParentTable: "Locations", ParentColumn: "LocationID"},
		},
	})

	core.Register(core.TableDefinition{
		Name:    "ActivityDrops",
		Level:   3,
		Columns: activityDropColumns,
		Checks: []core.ColumnCheck{
			{Column: "DropRate", Kind: core.CheckRange, Min: 0, Max: 1},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "ActivityID", ParentTable: "Activities", ParentColumn: "ActivityID"},
			{Column: "ItemID", ParentTable: "Items", ParentColumn: "ItemID"},
		},
	})

	core.Register(core.TableDefinition{
		Name:    "EnemyDrops",
		Level:   3,
		Columns: enemyDropColumns,
		Checks: []core.ColumnCheck{
			{Column: "DropRate", Kind: core.CheckRange, Min: 0, Max: 1},
		},
		ForeignKeys: []core.ForeignKey{
			{Column: "EnemyID", ParentTable: "Enemies", ParentColumn: "EnemyID"},
			{Column: "ItemID", ParentTable: "Items", ParentColumn: "ItemID"},
		},
	})

	core.Register(core.TableDefinition{
		Name:    "SeasonalActivities",
		Level:   3,
		Columns: seasonalActivityColumns,
		ForeignKeys: []core.ForeignKey{
			{Column: "SeasonID", ParentTable: "Seasons", ParentColumn: "SeasonID"},
			{Column: "ActivityID", ParentTable: "Activities", ParentColumn: "ActivityID"},
		},
	})
}

// expandActivity derives join rows from one activity definition: reward drops,
// encounter-phase enemies and their drops, and the season link when present.
func expandActivity(rec core.DefinitionRecord, gameID int64) []core.NormalizedRow {
	activityID, ok := lookupInt64(rec, "hash")
	if !ok {
		return nil
	}

	var rows []core.NormalizedRow

	var rewardItems []int64
	if raw, ok := rec.Lookup("rewards"); ok {
		for _, reward := range objectList(raw) {
			itemID, ok := core.AsInt64(reward["itemHash"])
			if !ok {
				continue
			}
			rewardItems = append(rewardItems, itemID)

			dropRate := defaultDropRate
			if chance, ok := core.AsFloat64(reward["dropChance"]); ok {
				dropRate = chance
			}
			rows = append(rows, core.NormalizedRow{
				Table:    "ActivityDrops",
				Columns:  activityDropColumns,
				Values:   []any{gameID, activityID, itemID, dropRate},
				SourceID: rec.Hash,
			})
		}
	}

	if raw, ok := rec.Lookup("phases"); ok {
		typeID, hasType := lookupInt64(rec, "activityTypeHash")
		zoneID, hasZone := lookupInt64(rec, "locationHash")

		for _, phase := range objectList(raw) {
			phaseID, ok := core.AsInt64(phase["id"])
			if !ok {
				continue
			}
			// Phase enemies have no hash of their own; their identity is
			// the activity plus phase.
			enemyID := fmt.Sprintf("%d_%d", activityID, phaseID)

			name := "Unknown Enemy"
			if s, ok := core.AsString(phase["name"]); ok && s != "" {
				name = s
			}
			health := int64(0)
			if h, ok := core.AsInt64(phase["health"]); ok {
				health = h
			}
			damageType := "None"
			if d, ok := core.AsString(phase["damageType"]); ok && d != "" {
				damageType = d
			}
			// Absent hashes stay NULL so validation does not chase a
			// reference that was never there.
			var typ any
			if hasType {
				typ = typeID
			}
			var zone any
			if hasZone {
				zone = zoneID
			}

			rows = append(rows, core.NormalizedRow{
				Table:    "Enemies",
				Columns:  enemyColumns,
				Values:   []any{gameID, enemyID, name, typ, zone, health, damageType},
				SourceID: rec.Hash,
			})

			for _, itemID := range rewardItems {
				rows = append(rows, core.NormalizedRow{
					Table:    "EnemyDrops",
					Columns:  enemyDropColumns,
					Values:   []any{gameID, enemyID, itemID, defaultDropRate},
					SourceID: rec.Hash,
				})
			}
		}
	}

	if seasonID, ok := lookupInt64(rec, "seasonHash"); ok {
		rows = append(rows, core.NormalizedRow{
			Table:    "SeasonalActivities",
			Columns:  seasonalActivityColumns,
			Values:   []any{gameID, seasonID, activityID},
			SourceID: rec.Hash,
		})
	}

	return rows
}
