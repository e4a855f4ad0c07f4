package models

import "testing"

func TestRecount(t *testing.T) {
	entry := Entry{
		Tasks: []Task{
			{ID: "t1", Completed: true},
			{ID: "t2"},
			{ID: "t3", Completed: true},
		},
		CompletedCount: 99,
		TotalTasks:     99,
	}
	entry.Recount()

	if entry.CompletedCount != 2 || entry.TotalTasks != 3 {
		t.Errorf("expected 2/3, got %d/%d", entry.CompletedCount, entry.TotalTasks)
	}
}

func TestHasTitle(t *testing.T) {
	entry := Entry{Tasks: []Task{{ID: "t1", Title: "stretch"}}}

	if !entry.HasTitle("stretch") {
		t.Error("expected HasTitle to find existing title")
	}
	if entry.HasTitle("Stretch") {
		t.Error("title matching is exact")
	}
}

func TestParseRoutineType(t *testing.T) {
	for _, valid := range []string{"none", "morning", "night"} {
		rt, err := ParseRoutineType(valid)
		if err != nil {
			t.Errorf("ParseRoutineType(%q) failed: %v", valid, err)
		}
		if !rt.IsValid() {
			t.Errorf("parsed type %q should be valid", valid)
		}
	}

	if _, err := ParseRoutineType("weekly"); err == nil {
		t.Error("expected error for unknown routine type")
	}
	if RoutineType("weekly").IsValid() {
		t.Error("unknown routine type should be invalid")
	}
}

func TestRoutinesForType(t *testing.T) {
	r := Routines{Morning: []string{"stretch"}, Night: []string{"read"}}

	if got := r.ForType(RoutineMorning); len(got) != 1 || got[0] != "stretch" {
		t.Errorf("wrong morning list: %v", got)
	}
	if got := r.ForType(RoutineNight); len(got) != 1 || got[0] != "read" {
		t.Errorf("wrong night list: %v", got)
	}
	if got := r.ForType(RoutineNone); got != nil {
		t.Errorf("ad hoc type has no routine list, got %v", got)
	}
}
