package core

import "testing"

func TestRegisterDerivesColumns(t *testing.T) {
	Clear()
	defer Clear()

	Register(TableDefinition{
		Name:  "Quests",
		Level: 2,
		Fields: []FieldSpec{
			{Column: "QuestID", Path: "hash", Type: FieldHash, Required: true},
			{Column: "Name", Path: "displayProperties.name", Type: FieldText, Required: true},
		},
	})

	def, ok := Get("Quests")
	if !ok {
		t.Fatal("Quests not registered")
	}
	want := []string{"GameID", "QuestID", "Name"}
	if len(def.Columns) != len(want) {
		t.Fatalf("Columns = %v, want %v", def.Columns, want)
	}
	for i := range want {
		if def.Columns[i] != want[i] {
			t.Errorf("Columns[%d] = %s, want %s", i, def.Columns[i], want[i])
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Clear()
	defer Clear()

	Register(TableDefinition{Name: "Items", Level: 1})

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	Register(TableDefinition{Name: "Items", Level: 1})
}

func TestAllOrdering(t *testing.T) {
	Clear()
	defer Clear()

	// Deliberately registered out of order.
	Register(TableDefinition{Name: "ActivityDrops", Level: 3})
	Register(TableDefinition{Name: "Enemies", Level: 2})
	Register(TableDefinition{Name: "Activities", Level: 2, Component: "DestinyActivityDefinition"})
	Register(TableDefinition{Name: "Items", Level: 1, Component: "DestinyInventoryItemDefinition"})

	var got []string
	for _, def := range All() {
		got = append(got, def.Name)
	}

	// Levels ascend; within a level, component-fed tables come before
	// expander-fed ones so producers run first.
	want := []string{"Items", "Activities", "Enemies", "ActivityDrops"}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
