package leaderboard

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

func newTestStore(t *testing.T) *storage.JSONStore {
	t.Helper()

	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "daybook.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

// seedDay writes an entry with the given completed/total task counts.
func seedDay(t *testing.T, store *storage.JSONStore, userID, date string, completed, total int) {
	t.Helper()

	tasks := make([]models.Task, 0, total)
	for i := 0; i < total; i++ {
		tasks = append(tasks, models.Task{
			ID:        fmt.Sprintf("%s-%s-%d", userID, date, i),
			Title:     fmt.Sprintf("task %d", i),
			Completed: i < completed,
		})
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.MergeEntry(userID, date, storage.EntryWrite(tasks, ts)); err != nil {
		t.Fatalf("failed to seed %s/%s: %v", userID, date, err)
	}
}

func saveProfile(t *testing.T, store *storage.JSONStore, userID, name string) {
	t.Helper()

	if err := store.SaveProfile(models.Profile{UserID: userID, DisplayName: name}); err != nil {
		t.Fatalf("failed to save profile %s: %v", userID, err)
	}
}

func TestBuildRanksByWindowCompletedThenPerfectDays(t *testing.T) {
	store := newTestStore(t)
	svc := New(store)

	saveProfile(t, store, "alice", "Alice")
	saveProfile(t, store, "bob", "Bob")
	saveProfile(t, store, "carol", "Carol")

	// Alice: 9 completed today, one perfect day.
	seedDay(t, store, "alice", "2026-03-02", 9, 9)
	// Bob: 7 today plus three earlier perfect days.
	seedDay(t, store, "bob", "2026-03-02", 7, 9)
	seedDay(t, store, "bob", "2026-02-10", 9, 9)
	seedDay(t, store, "bob", "2026-02-11", 9, 9)
	seedDay(t, store, "bob", "2026-02-12", 9, 9)
	// Carol: 7 today, one earlier perfect day.
	seedDay(t, store, "carol", "2026-03-02", 7, 9)
	seedDay(t, store, "carol", "2026-02-10", 9, 9)

	rows, err := svc.Build(WindowToday, "2026-03-02")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, userID := range want {
		if rows[i].UserID != userID {
			t.Errorf("rank %d: expected %s, got %s", i+1, userID, rows[i].UserID)
		}
	}

	if rows[0].WindowCompletedCount != 9 {
		t.Errorf("alice window count: expected 9, got %d", rows[0].WindowCompletedCount)
	}
	if rows[1].PerfectDayCount != 3 {
		t.Errorf("bob perfect days: expected 3, got %d", rows[1].PerfectDayCount)
	}
}

func TestBuildWeekWindowSumsSevenDays(t *testing.T) {
	store := newTestStore(t)
	svc := New(store)

	saveProfile(t, store, "alice", "Alice")

	// In window: today back through today-6.
	seedDay(t, store, "alice", "2026-03-02", 3, 5)
	seedDay(t, store, "alice", "2026-02-24", 2, 5)
	// Out of window: one day too old.
	seedDay(t, store, "alice", "2026-02-23", 4, 5)

	rows, err := svc.Build(WindowWeek, "2026-03-02")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].WindowCompletedCount != 5 {
		t.Errorf("expected week sum 5, got %d", rows[0].WindowCompletedCount)
	}
}

func TestBuildLifetimeStatsIgnoreWindow(t *testing.T) {
	store := newTestStore(t)
	svc := New(store)

	saveProfile(t, store, "alice", "Alice")

	seedDay(t, store, "alice", "2026-01-01", 9, 9)
	seedDay(t, store, "alice", "2026-01-02", 4, 6)
	seedDay(t, store, "alice", "2026-03-02", 5, 8)

	rows, err := svc.Build(WindowToday, "2026-03-02")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	row := rows[0]

	if row.WindowCompletedCount != 5 {
		t.Errorf("window count: expected 5, got %d", row.WindowCompletedCount)
	}
	if row.PerfectDayCount != 1 {
		t.Errorf("perfect days: expected 1, got %d", row.PerfectDayCount)
	}
	if row.TotalDaysTracked != 3 {
		t.Errorf("days tracked: expected 3, got %d", row.TotalDaysTracked)
	}
	if want := 6.0; row.AveragePerDay != want {
		t.Errorf("average: expected %.1f, got %.2f", want, row.AveragePerDay)
	}
}

func TestBuildFallsBackToUserID(t *testing.T) {
	store := newTestStore(t)
	svc := New(store)

	saveProfile(t, store, "alice", "")
	seedDay(t, store, "alice", "2026-03-02", 1, 1)

	rows, err := svc.Build(WindowToday, "2026-03-02")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if rows[0].DisplayName != "alice" {
		t.Errorf("expected user id fallback, got %q", rows[0].DisplayName)
	}
}

func TestBuildUserWithNoEntries(t *testing.T) {
	store := newTestStore(t)
	svc := New(store)

	saveProfile(t, store, "alice", "Alice")

	rows, err := svc.Build(WindowToday, "2026-03-02")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.TotalDaysTracked != 0 || row.AveragePerDay != 0 {
		t.Errorf("expected zeroed stats, got %d days, %.2f avg", row.TotalDaysTracked, row.AveragePerDay)
	}
}

func TestParseWindow(t *testing.T) {
	if _, err := ParseWindow("TODAY"); err != nil {
		t.Errorf("window parsing should be case insensitive: %v", err)
	}
	if _, err := ParseWindow(" week "); err != nil {
		t.Errorf("window parsing should trim whitespace: %v", err)
	}
	if _, err := ParseWindow("month"); err == nil {
		t.Error("expected error for unknown window")
	}
	if _, _, err := Window("month").bounds("2026-03-02"); err == nil {
		t.Error("expected error for unknown window bounds")
	}
}
