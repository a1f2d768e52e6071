package tables

import (
	"testing"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestRegistryCoversAllDestinationTables(t *testing.T) {
	want := []string{
		"Items", "Locations", "Currencies", "LoreBooks", "EnemyTypes",
		"Events", "Seasons", "Activities", "Vendors", "Quests", "Enemies",
		"LoreEntries", "EventRewards", "SeasonalItems", "ActivityDrops",
		"EnemyDrops", "SeasonalActivities",
	}
	if got := core.TableCount(); got != len(want) {
		t.Errorf("TableCount = %d, want %d", got, len(want))
	}
	for _, name := range want {
		if _, ok := core.Get(name); !ok {
			t.Errorf("table %s not registered", name)
		}
	}
}

func TestProcessingOrderRespectsDependencies(t *testing.T) {
	position := make(map[string]int)
	for i, def := range core.All() {
		position[def.Name] = i
	}

	// A child must come after every table it references.
	edges := [][2]string{
		{"Items", "SeasonalItems"},
		{"Seasons", "SeasonalItems"},
		{"Locations", "Vendors"},
		{"EnemyTypes", "Activities"},
		{"Activities", "Enemies"},
		{"Activities", "ActivityDrops"},
		{"Enemies", "EnemyDrops"},
		{"LoreBooks", "LoreEntries"},
		{"Events", "EventRewards"},
	}
	for _, edge := range edges {
		if position[edge[0]] >= position[edge[1]] {
			t.Errorf("%s (pos %d) should precede %s (pos %d)",
				edge[0], position[edge[0]], edge[1], position[edge[1]])
		}
	}
}

// ----------------------------------------------------------------------------
// Item Mapping Tests
// ----------------------------------------------------------------------------

func exoticRocketLauncher() core.DefinitionRecord {
	return core.DefinitionRecord{
		Hash: "1363886209",
		Fields: map[string]any{
			"hash": float64(1363886209),
			"displayProperties": map[string]any{
				"name":        "Gjallarhorn",
				"description": "Wolfpack rounds.",
				"icon":        "/common/destiny2_content/icons/gjallarhorn.jpg",
			},
			"inventory":             map[string]any{"tierTypeName": "Exotic"},
			"itemCategoryHashes":    []any{float64(1), float64(10)},
			"defaultDamageTypeHash": float64(2303181850),
		},
	}
}

func TestNormalizeItem(t *testing.T) {
	def, ok := core.Get("Items")
	if !ok {
		t.Fatal("Items not registered")
	}

	rows, err := core.Normalize(exoticRocketLauncher(), def, 1)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	got := make(map[string]any)
	for i, col := range rows[0].Columns {
		got[col] = rows[0].Values[i]
	}

	if v := got["Category"].(pgtype.Text); v.String != "Weapon" {
		t.Errorf("Category = %q", v.String)
	}
	if v := got["SubCategory"].(pgtype.Text); v.String != "Rocket Launcher" {
		t.Errorf("SubCategory = %q", v.String)
	}
	if v := got["DamageType"].(pgtype.Text); v.String != "Solar" {
		t.Errorf("DamageType = %q", v.String)
	}
	if v := got["IsExotic"].(pgtype.Bool); !v.Bool {
		t.Error("IsExotic = false, want true")
	}
	if v := got["IsQuestItem"].(pgtype.Bool); v.Bool {
		t.Error("IsQuestItem = true, want false")
	}
	if v := got["ImageURL"].(pgtype.Text); v.String != "https://www.bungie.net/common/destiny2_content/icons/gjallarhorn.jpg" {
		t.Errorf("ImageURL = %q", v.String)
	}
}

func TestNormalizeItemUnknownMappings(t *testing.T) {
	def, _ := core.Get("Items")

	rec := exoticRocketLauncher()
	rec.Fields["itemCategoryHashes"] = []any{float64(424242)}
	delete(rec.Fields, "defaultDamageTypeHash")
	rec.Fields["inventory"] = map[string]any{}

	rows, err := core.Normalize(rec, def, 1)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	got := make(map[string]any)
	for i, col := range rows[0].Columns {
		got[col] = rows[0].Values[i]
	}

	if got["Category"] != "Unknown" {
		t.Errorf("Category = %v, want Unknown default", got["Category"])
	}
	if got["DamageType"] != "None" {
		t.Errorf("DamageType = %v, want None default", got["DamageType"])
	}
	if got["Rarity"] != "Unknown" {
		t.Errorf("Rarity = %v, want Unknown default", got["Rarity"])
	}
}

func TestCurrencyFilter(t *testing.T) {
	def, _ := core.Get("Currencies")

	currency := core.DefinitionRecord{
		Hash: "3159615086",
		Fields: map[string]any{
			"hash":               float64(3159615086),
			"displayProperties":  map[string]any{"name": "Glimmer"},
			"itemCategoryHashes": []any{float64(100)},
		},
	}
	if !def.Filter(currency) {
		t.Error("currency record filtered out")
	}

	weapon := exoticRocketLauncher()
	if def.Filter(weapon) {
		t.Error("weapon passed the currency filter")
	}
}

// ----------------------------------------------------------------------------
// Activity Expansion Tests
// ----------------------------------------------------------------------------

func raidActivity() core.DefinitionRecord {
	return core.DefinitionRecord{
		Hash: "3881495763",
		Fields: map[string]any{
			"hash":              float64(3881495763),
			"displayProperties": map[string]any{"name": "Vault of Glass"},
			"activityTypeHash":  float64(2043403989),
			"locationHash":      float64(126924919),
			"seasonHash":        float64(2809059425),
			"rewards": []any{
				map[string]any{"itemHash": float64(100), "dropChance": 0.05},
				map[string]any{"itemHash": float64(101)},
			},
			"phases": []any{
				map[string]any{"id": float64(1), "name": "The Templar", "health": float64(500000), "damageType": "Void"},
				map[string]any{"id": float64(2)},
			},
		},
	}
}

func TestExpandActivity(t *testing.T) {
	rows := expandActivity(raidActivity(), 1)

	byTable := make(map[string][]core.NormalizedRow)
	for _, row := range rows {
		byTable[row.Table] = append(byTable[row.Table], row)
	}

	if len(byTable["ActivityDrops"]) != 2 {
		t.Errorf("ActivityDrops = %d, want 2", len(byTable["ActivityDrops"]))
	}
	if len(byTable["Enemies"]) != 2 {
		t.Errorf("Enemies = %d, want 2", len(byTable["Enemies"]))
	}
	// Each phase enemy can drop each activity reward.
	if len(byTable["EnemyDrops"]) != 4 {
		t.Errorf("EnemyDrops = %d, want 4", len(byTable["EnemyDrops"]))
	}
	if len(byTable["SeasonalActivities"]) != 1 {
		t.Errorf("SeasonalActivities = %d, want 1", len(byTable["SeasonalActivities"]))
	}

	// Explicit drop chance is kept; missing one defaults to 1.0.
	drops := byTable["ActivityDrops"]
	if drops[0].Values[3] != 0.05 {
		t.Errorf("first DropRate = %v, want 0.05", drops[0].Values[3])
	}
	if drops[1].Values[3] != 1.0 {
		t.Errorf("second DropRate = %v, want default 1.0", drops[1].Values[3])
	}

	templar := byTable["Enemies"][0]
	if templar.Values[1] != "3881495763_1" {
		t.Errorf("EnemyID = %v", templar.Values[1])
	}
	if templar.Values[2] != "The Templar" {
		t.Errorf("enemy Name = %v", templar.Values[2])
	}

	// Nameless phase gets the placeholder identity.
	unnamed := byTable["Enemies"][1]
	if unnamed.Values[2] != "Unknown Enemy" {
		t.Errorf("unnamed enemy = %v", unnamed.Values[2])
	}
	if unnamed.Values[6] != "None" {
		t.Errorf("unnamed damage type = %v", unnamed.Values[6])
	}
}

func TestExpandActivityWithoutExtras(t *testing.T) {
	bare := core.DefinitionRecord{
		Hash: "42",
		Fields: map[string]any{
			"hash":              float64(42),
			"displayProperties": map[string]any{"name": "Patrol"},
		},
	}
	if rows := expandActivity(bare, 1); len(rows) != 0 {
		t.Errorf("bare activity expanded to %d rows", len(rows))
	}
}

func TestExpandActivityPhasesWithoutHashes(t *testing.T) {
	rec := core.DefinitionRecord{
		Hash: "42",
		Fields: map[string]any{
			"hash":              float64(42),
			"displayProperties": map[string]any{"name": "Patrol"},
			"phases": []any{
				map[string]any{"id": float64(1), "name": "Patrol Beacon"},
			},
		},
	}

	rows := expandActivity(rec, 1)
	if len(rows) != 1 || rows[0].Table != "Enemies" {
		t.Fatalf("rows = %v, want one Enemies row", rows)
	}

	// No activityTypeHash or locationHash on the activity: both references
	// stay NULL rather than pointing at a zero hash no parent table has.
	if got := rows[0].Values[3]; got != nil {
		t.Errorf("TypeID = %v, want nil", got)
	}
	if got := rows[0].Values[4]; got != nil {
		t.Errorf("ZoneID = %v, want nil", got)
	}
}

// ----------------------------------------------------------------------------
// Vendor and Lore Tests
// ----------------------------------------------------------------------------

func TestVendorType(t *testing.T) {
	tests := []struct {
		ident string
		want  string
	}{
		{"faction_fwc", "Faction"},
		{"FACTION_NM", "Faction"},
		{"tower_gunsmith", "NPC"},
		{"", "NPC"},
	}
	for _, tt := range tests {
		got, ok := vendorType(tt.ident)
		if !ok || got != tt.want {
			t.Errorf("vendorType(%q) = %v/%v, want %s", tt.ident, got, ok, tt.want)
		}
	}
}

func TestLoreFiltersSplitBooksAndEntries(t *testing.T) {
	books, _ := core.Get("LoreBooks")
	entries, _ := core.Get("LoreEntries")

	book := core.DefinitionRecord{
		Hash:   "1",
		Fields: map[string]any{"hash": float64(1), "displayProperties": map[string]any{"name": "The Dreaming City"}},
	}
	entry := core.DefinitionRecord{
		Hash: "2",
		Fields: map[string]any{
			"hash":              float64(2),
			"bookHash":          float64(1),
			"displayProperties": map[string]any{"name": "Chapter One"},
		},
	}

	if !books.Filter(book) || books.Filter(entry) {
		t.Error("LoreBooks filter misclassifies records")
	}
	if entries.Filter(book) || !entries.Filter(entry) {
		t.Error("LoreEntries filter misclassifies records")
	}
}
