package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/engine"
	"github.com/julianstephens/daybook/internal/leaderboard"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

// Context carries the wired services into command Run methods.
type Context struct {
	Store  storage.Provider
	Engine *engine.Engine
	Board  *leaderboard.Service

	// User is the id commands operate as. Multi-user stores share one
	// board; the --user flag selects whose ledger commands act on.
	User string
}

// Today returns the current calendar date in the user's local time. This is
// the only place the wall clock decides what day it is; everything below the
// CLI takes dates as explicit parameters.
func Today() string {
	return time.Now().Format(constants.DateFormat)
}

// resolveDate accepts "today", "tomorrow", or an explicit YYYY-MM-DD string.
func resolveDate(arg string) (string, error) {
	switch arg {
	case "", "today":
		return Today(), nil
	case "tomorrow":
		return time.Now().AddDate(0, 0, 1).Format(constants.DateFormat), nil
	}

	if _, err := time.Parse(constants.DateFormat, arg); err != nil {
		return "", fmt.Errorf("invalid date format, use YYYY-MM-DD, 'today' or 'tomorrow': %w", err)
	}
	return arg, nil
}

// printEntry renders an entry grouped by routine bucket, morning routines
// first, then ad hoc tasks, then night routines, preserving insertion order
// within each bucket.
func printEntry(entry models.Entry) {
	if len(entry.Tasks) == 0 {
		fmt.Println("  No tasks.")
		return
	}

	buckets := []struct {
		label string
		rt    models.RoutineType
	}{
		{"morning", models.RoutineMorning},
		{"tasks", models.RoutineNone},
		{"night", models.RoutineNight},
	}

	for _, bucket := range buckets {
		printed := false
		for _, task := range entry.Tasks {
			if task.RoutineType != bucket.rt {
				continue
			}
			if !printed {
				fmt.Printf("%s:\n", bucket.label)
				printed = true
			}
			mark := " "
			if task.Completed {
				mark = "x"
			}
			fmt.Printf("  [%s] %-40s %s\n", mark, task.Title, shortID(task.ID))
		}
	}

	fmt.Printf("\ncompleted: %d/%d\n", entry.CompletedCount, constants.PerfectDayBaseline)
}

// shortID truncates a uuid for display; commands accept the prefix back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findTask resolves a task id or unique id prefix within an entry.
func findTask(entry models.Entry, idOrPrefix string) (models.Task, error) {
	var match models.Task
	found := 0
	for _, task := range entry.Tasks {
		if task.ID == idOrPrefix {
			return task, nil
		}
		if len(idOrPrefix) >= 4 && len(task.ID) >= len(idOrPrefix) && task.ID[:len(idOrPrefix)] == idOrPrefix {
			match = task
			found++
		}
	}

	switch found {
	case 0:
		return models.Task{}, fmt.Errorf("no task matching %q", idOrPrefix)
	case 1:
		return match, nil
	default:
		return models.Task{}, fmt.Errorf("task id %q is ambiguous, use more characters", idOrPrefix)
	}
}
