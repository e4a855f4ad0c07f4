// Package validation checks ledger documents for internal consistency. It is
// used by the doctor command; the engine maintains these invariants itself on
// every write.
package validation

import (
	"fmt"
	"time"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/models"
)

// ProblemType represents the type of validation problem
type ProblemType string

const (
	ProblemInvalidDate        ProblemType = "invalid_date"
	ProblemEmptyTitle         ProblemType = "empty_title"
	ProblemMissingTaskID      ProblemType = "missing_task_id"
	ProblemDuplicateTaskID    ProblemType = "duplicate_task_id"
	ProblemInvalidRoutineType ProblemType = "invalid_routine_type"
	ProblemCounterMismatch    ProblemType = "counter_mismatch"
)

// Problem describes a single consistency violation found in an entry.
type Problem struct {
	Type        ProblemType
	Description string
	UserID      string
	Date        string
}

// Result contains all detected problems
type Result struct {
	Problems []Problem
}

// HasProblems returns true if any problems were detected
func (r *Result) HasProblems() bool {
	return len(r.Problems) > 0
}

// FormatReport returns a human-readable report of all problems
func (r *Result) FormatReport() string {
	if !r.HasProblems() {
		return "No problems detected."
	}

	report := "Problems detected:\n"
	for _, p := range r.Problems {
		report += fmt.Sprintf("- %s\n", p.Description)
	}
	return report
}

// Validator validates ledger entries
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateEntry checks one entry for consistency violations.
func (v *Validator) ValidateEntry(userID string, entry models.Entry) Result {
	result := Result{Problems: []Problem{}}

	add := func(pt ProblemType, format string, args ...any) {
		result.Problems = append(result.Problems, Problem{
			Type:        pt,
			Description: fmt.Sprintf(format, args...),
			UserID:      userID,
			Date:        entry.Date,
		})
	}

	if _, err := time.Parse(constants.DateFormat, entry.Date); err != nil {
		add(ProblemInvalidDate, "entry for %s has invalid date key %q", userID, entry.Date)
	}

	seen := make(map[string]bool, len(entry.Tasks))
	completed := 0
	for _, task := range entry.Tasks {
		if task.Completed {
			completed++
		}
		if task.ID == "" {
			add(ProblemMissingTaskID, "task %q on %s has no id", task.Title, entry.Date)
		} else if seen[task.ID] {
			add(ProblemDuplicateTaskID, "duplicate task id %s on %s", task.ID, entry.Date)
		}
		seen[task.ID] = true

		if task.Title == "" {
			add(ProblemEmptyTitle, "task %s on %s has an empty title", task.ID, entry.Date)
		}
		if !task.RoutineType.IsValid() {
			add(ProblemInvalidRoutineType, "task %q on %s has invalid routine type %q", task.Title, entry.Date, task.RoutineType)
		}
	}

	if entry.CompletedCount != completed {
		add(ProblemCounterMismatch, "entry %s completed_count is %d, tasks say %d", entry.Date, entry.CompletedCount, completed)
	}
	if entry.TotalTasks != len(entry.Tasks) {
		add(ProblemCounterMismatch, "entry %s total_tasks is %d, tasks say %d", entry.Date, entry.TotalTasks, len(entry.Tasks))
	}

	return result
}

// ValidateEntries checks a user's entries and merges the results.
func (v *Validator) ValidateEntries(userID string, entries []models.Entry) Result {
	result := Result{Problems: []Problem{}}
	for _, entry := range entries {
		r := v.ValidateEntry(userID, entry)
		result.Problems = append(result.Problems, r.Problems...)
	}
	return result
}
