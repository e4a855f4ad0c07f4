package storage

import (
	"time"

	"github.com/julianstephens/daybook/internal/models"
)

// EntryPatch is a field-level merge payload for an entry document. Nil fields
// are left untouched by the write; a merge against a missing entry creates it
// from the patch. The task list is a single document field, so a patch that
// carries Tasks replaces the whole list.
type EntryPatch struct {
	Tasks           *[]models.Task
	CompletedCount  *int
	TotalTasks      *int
	RolloverApplied *bool
	Timestamp       *time.Time
}

// Apply copies the patch's present fields onto the entry.
func (p EntryPatch) Apply(e *models.Entry) {
	if p.Tasks != nil {
		e.Tasks = *p.Tasks
	}
	if p.CompletedCount != nil {
		e.CompletedCount = *p.CompletedCount
	}
	if p.TotalTasks != nil {
		e.TotalTasks = *p.TotalTasks
	}
	if p.RolloverApplied != nil {
		e.RolloverApplied = *p.RolloverApplied
	}
	if p.Timestamp != nil {
		e.Timestamp = *p.Timestamp
	}
}

// EntryWrite builds the patch for a routine entry write: the new task list,
// counters recomputed from it, and a fresh last-write timestamp.
func EntryWrite(tasks []models.Task, now time.Time) EntryPatch {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	total := len(tasks)
	return EntryPatch{
		Tasks:          &tasks,
		CompletedCount: &completed,
		TotalTasks:     &total,
		Timestamp:      &now,
	}
}

// CloseRollover builds the patch that closes an entry against future use as a
// rollover source.
func CloseRollover(now time.Time) EntryPatch {
	applied := true
	return EntryPatch{
		RolloverApplied: &applied,
		Timestamp:       &now,
	}
}
