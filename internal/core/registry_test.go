package core

import (
	"errors"
	"testing"
)

func TestRegister(t *testing.T) {
	registerScores(t)

	if TableCount() != 1 {
		t.Fatalf("TableCount() = %d, want 1", TableCount())
	}
	def, ok := Get(testKey)
	if !ok {
		t.Fatal("Get() did not find the table")
	}
	if def.Info.Label != "Scores" {
		t.Errorf("Label = %q", def.Info.Label)
	}
	if _, ok := Get("missing"); ok {
		t.Error("Get(missing) = ok")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	registerScores(t)

	defer func() {
		if recover() == nil {
			t.Error("Register() of a duplicate key did not panic")
		}
	}()
	Register(scoresTable())
}

func TestRegister_InvalidDefaultPanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	def := scoresTable()
	def.Default.Sorts = []SortSpec{{"nope", SortAsc}}

	defer func() {
		if recover() == nil {
			t.Error("Register() with an invalid default view did not panic")
		}
	}()
	Register(def)
}

func TestAll_SortedByKey(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	for _, key := range []string{"zeta", "alpha", "mid"} {
		def := scoresTable()
		def.Info.Key = key
		Register(def)
	}

	all := All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if all[i].Info.Key != want {
			t.Errorf("All()[%d] = %q, want %q", i, all[i].Info.Key, want)
		}
	}
}

func TestSetDefaultView(t *testing.T) {
	registerScores(t)

	view := ViewState{
		Sorts:    []SortSpec{{ColImpressions, SortDesc}},
		PageSize: 50,
	}
	if err := SetDefaultView(testKey, "Custom", view); err != nil {
		t.Fatalf("SetDefaultView() error: %v", err)
	}

	def, _ := Get(testKey)
	if def.Info.Title != "Custom" {
		t.Errorf("Title = %q, want Custom", def.Info.Title)
	}
	if def.Default.PageSize != 50 || len(def.Default.Sorts) != 1 || def.Default.Page != 1 {
		t.Errorf("Default = %+v", def.Default)
	}

	if err := SetDefaultView(testKey, "", ViewState{PageSize: 7}); err == nil {
		t.Error("SetDefaultView() accepted page size 7")
	}
	if err := SetDefaultView("missing", "", ViewState{}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("err = %v, want ErrTableNotFound", err)
	}
	if err := SetDefaultView(testKey, "", ViewState{Sorts: []SortSpec{{"x", SortAsc}}}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestServiceListTables(t *testing.T) {
	registerScores(t)
	infos := NewService("x").ListTables()
	if len(infos) != 1 || infos[0].Key != testKey {
		t.Errorf("ListTables() = %+v", infos)
	}
}
