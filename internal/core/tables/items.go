package tables

import (
	"strings"

	"github.com/Into-The-Grey/CodexKeep/internal/core"
)

// rarityTiers is the canonical tier set carried on item definitions.
// Normalization folds anything else to "Unknown"; validation accepts both.
var rarityTiers = []string{"Common", "Uncommon", "Rare", "Legendary", "Exotic"}

// categoryNames maps the leading item category hash to a display category.
var categoryNames = map[int64]string{
	1:   "Weapon",
	20:  "Armor",
	40:  "Consumable",
	50:  "Material",
	60:  "Shader",
	70:  "Emblem",
	80:  "Quest",
	90:  "Subclass",
	100: "Mod",
	110: "Ship",
	120: "Sparrow",
	130: "Clan Banner",
	140: "Emote",
	150: "Ghost",
	160: "Finishers",
}

// subcategoryNames maps the second item category hash to a weapon or armor
// archetype.
var subcategoryNames = map[int64]string{
	2:  "Auto Rifle",
	3:  "Hand Cannon",
	4:  "Pulse Rifle",
	5:  "Scout Rifle",
	6:  "Fusion Rifle",
	7:  "Sniper Rifle",
	8:  "Shotgun",
	9:  "Machine Gun",
	10: "Rocket Launcher",
	11: "Sidearm",
	12: "Sword",
	13: "Grenade Launcher",
	14: "Linear Fusion Rifle",
	15: "Trace Rifle",
	16: "Bow",
	17: "Glaive",
	21: "Helmet",
	22: "Gauntlets",
	23: "Chest Armor",
	24: "Leg Armor",
	25: "Class Item",
}

// damageTypeNames maps defaultDamageTypeHash to an element name.
var damageTypeNames = map[int64]string{
	3373582085: "Kinetic",
	1847026933: "Arc",
	2303181850: "Solar",
	3454344768: "Void",
	151347233:  "Stasis",
	3949783978: "Strand",
}

// categoryHashQuest marks quest items inside itemCategoryHashes.
const categoryHashQuest = 16

// categoryHashCurrency marks currencies inside itemCategoryHashes.
const categoryHashCurrency = 100

func init() {
	core.Register(core.TableDefinition{
		Name:      "Items",
		Level:     1,
		Component: "DestinyInventoryItemDefinition",
		Fields: []core.FieldSpec{
			{Column: "ItemID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
			{Column: "Rarity", Path: "inventory.tierTypeName", Type: core.FieldEnum,
				EnumValues: rarityTiers, Default: "Unknown"},
			{Column: "Category", Path: "itemCategoryHashes", Type: core.FieldText,
				Convert: categoryName, Default: "Unknown"},
			{Column: "SubCategory", Path: "itemCategoryHashes", Type: core.FieldText,
				Convert: subcategoryName, Default: "Unknown"},
			{Column: "DamageType", Path: "defaultDamageTypeHash", Type: core.FieldText,
				Convert: damageTypeName, Default: "None"},
			{Column: "IsExotic", Path: "inventory.tierTypeName", Type: core.FieldBool,
				Convert: isExotic, Default: false},
			{Column: "IsQuestItem", Path: "itemCategoryHashes", Type: core.FieldBool,
				Convert: isQuestItem, Default: false},
			{Column: "ImageURL", Path: "displayProperties.icon", Type: core.FieldText,
				Convert: iconURL},
		},
		Checks: []core.ColumnCheck{
			{Column: "ItemID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
			{Column: "Rarity", Kind: core.CheckRequired},
			{Column: "Rarity", Kind: core.CheckEnum, EnumValues: append(rarityTiers, "Unknown")},
			{Column: "ImageURL", Kind: core.CheckURL},
		},
	})

	core.Register(core.TableDefinition{
		Name:      "Currencies",
		Level:     1,
		Component: "DestinyInventoryItemDefinition",
		Filter:    isCurrency,
		Fields: []core.FieldSpec{
			{Column: "CurrencyID", Path: "hash", Type: core.FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: core.FieldText, Required: true},
			{Column: "Description", Path: "displayProperties.description", Type: core.FieldText},
			{Column: "Source", Default: "General", Type: core.FieldText},
		},
		Checks: []core.ColumnCheck{
			{Column: "CurrencyID", Kind: core.CheckRequired},
			{Column: "Name", Kind: core.CheckRequired},
		},
	})
}

func categoryName(raw any) (any, bool) {
	hashes := hashList(raw)
	if len(hashes) == 0 {
		return nil, false
	}
	name, ok := categoryNames[hashes[0]]
	return name, ok
}

func subcategoryName(raw any) (any, bool) {
	hashes := hashList(raw)
	if len(hashes) < 2 {
		return nil, false
	}
	name, ok := subcategoryNames[hashes[1]]
	return name, ok
}

func damageTypeName(raw any) (any, bool) {
	hash, ok := core.AsInt64(raw)
	if !ok {
		return nil, false
	}
	name, ok := damageTypeNames[hash]
	return name, ok
}

func isExotic(raw any) (any, bool) {
	tier, ok := core.AsString(raw)
	if !ok {
		return nil, false
	}
	return strings.EqualFold(tier, "Exotic"), true
}

func isQuestItem(raw any) (any, bool) {
	for _, hash := range hashList(raw) {
		if hash == categoryHashQuest {
			return true, true
		}
	}
	return false, true
}

func iconURL(raw any) (any, bool) {
	path, ok := core.AsString(raw)
	if !ok || path == "" {
		return nil, false
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, true
	}
	return cdnBase + path, true
}

func isCurrency(rec core.DefinitionRecord) bool {
	raw, ok := rec.Lookup("itemCategoryHashes")
	if !ok {
		return false
	}
	for _, hash := range hashList(raw) {
		if hash == categoryHashCurrency {
			return true
		}
	}
	return false
}
