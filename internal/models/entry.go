package models

import "time"

// Entry is the canonical task list and counters for one user on one calendar
// date. At most one entry exists per (user, date); the date string is the
// document key.
type Entry struct {
	Date  string `json:"date"` // YYYY-MM-DD format
	Tasks []Task `json:"tasks"`

	// CompletedCount and TotalTasks are derived from Tasks and recomputed on
	// every write; they are never maintained independently.
	CompletedCount int `json:"completed_count"`
	TotalTasks     int `json:"total_tasks"`

	// RolloverApplied flips to true the first time this entry is used as a
	// rollover source. Once set it never clears, closing the date against any
	// further carryover.
	RolloverApplied bool `json:"rollover_applied"`

	// Timestamp is the last-write marker, also the sort key when searching
	// for the most recent prior entry.
	Timestamp time.Time `json:"timestamp"`
}

// Recount recomputes the derived counters from the task list.
func (e *Entry) Recount() {
	completed := 0
	for _, t := range e.Tasks {
		if t.Completed {
			completed++
		}
	}
	e.CompletedCount = completed
	e.TotalTasks = len(e.Tasks)
}

// HasTitle reports whether any task in the entry carries the given title.
// Membership is by display title, not id: ad hoc tasks sharing text with a
// routine title are deliberately conflated with it.
func (e *Entry) HasTitle(title string) bool {
	for _, t := range e.Tasks {
		if t.Title == title {
			return true
		}
	}
	return false
}
