// Package engine implements the daily ledger's rollover and injection logic:
// carrying incomplete ad hoc tasks into the next tracked day exactly once,
// and materializing routine tasks without duplication.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

type Engine struct {
	store storage.Provider
	now   func() time.Time

	// Serializes day-boundary operations per user id. This guards against
	// concurrent invocations inside one process (multiple goroutines, a
	// timer racing a view transition); two separate processes sharing a
	// store can still race, which `daybook doctor` warns about.
	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func New(store storage.Provider) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		users: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.users[userID] = lock
	}
	return lock
}

// EnsureToday materializes the entry for today: if today is still empty it
// carries over the incomplete ad hoc tasks from the most recent prior entry
// (at most once per source date), then injects any routine titles not already
// present. Re-running against an already populated day only performs the
// injection check, so reloads never duplicate tasks.
//
// Today is always an explicit parameter; the engine never consults the wall
// clock to decide what day it is.
func (e *Engine) EnsureToday(userID, today string) (models.Entry, error) {
	if err := checkDate(today); err != nil {
		return models.Entry{}, err
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.loadOrNewEntry(userID, today)
	if err != nil {
		return models.Entry{}, err
	}

	var source *models.Entry
	if len(entry.Tasks) == 0 {
		source, err = e.findRolloverSource(userID, today)
		if err != nil {
			return models.Entry{}, err
		}
		if source != nil {
			rolled := synthesizeCarryover(source.Tasks)
			entry.Tasks = append(entry.Tasks, rolled...)
			logger.Debug("carrying over tasks", "user", userID, "from", source.Date, "to", today, "count", len(rolled))
		}
	}

	if err := e.injectRoutines(userID, &entry); err != nil {
		return models.Entry{}, err
	}

	now := e.now()
	if err := e.store.MergeEntry(userID, today, storage.EntryWrite(entry.Tasks, now)); err != nil {
		return models.Entry{}, fmt.Errorf("failed to write entry for %s: %w", today, err)
	}

	// Close the source only after today's write has landed: a crash between
	// the two writes leaves the source open but today populated, so the next
	// invocation short-circuits instead of duplicating or dropping tasks.
	// The closing write happens even when nothing rolled; an empty
	// incomplete set still closes that date against future rollovers.
	if source != nil {
		if err := e.store.MergeEntry(userID, source.Date, storage.CloseRollover(now)); err != nil {
			return models.Entry{}, fmt.Errorf("failed to close rollover source %s: %w", source.Date, err)
		}
	}

	entry.Recount()
	entry.Timestamp = now
	return entry, nil
}

// ManualRollover eagerly moves today's incomplete ad hoc tasks into
// tomorrow's entry and closes today against the passive engine re-rolling the
// same tasks later. It returns the number of tasks moved.
func (e *Engine) ManualRollover(userID, today string) (int, error) {
	day, err := time.Parse(constants.DateFormat, today)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", today, err)
	}
	tomorrow := day.AddDate(0, 0, 1).Format(constants.DateFormat)

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.loadOrNewEntry(userID, today)
	if err != nil {
		return 0, err
	}

	var moved, kept []models.Task
	for _, t := range entry.Tasks {
		if !t.Completed && t.RoutineType == models.RoutineNone {
			moved = append(moved, t)
		} else {
			kept = append(kept, t)
		}
	}

	now := e.now()

	// Append to the destination first, then rewrite the source. The two
	// writes are one logical unit; the store offers no transaction spanning
	// both documents, so a failure in between surfaces as an error and the
	// operation is retried as a whole.
	if len(moved) > 0 {
		dest, err := e.loadOrNewEntry(userID, tomorrow)
		if err != nil {
			return 0, err
		}
		dest.Tasks = append(dest.Tasks, synthesizeCarryover(moved)...)
		if err := e.store.MergeEntry(userID, tomorrow, storage.EntryWrite(dest.Tasks, now)); err != nil {
			return 0, fmt.Errorf("failed to write entry for %s: %w", tomorrow, err)
		}
	}

	patch := storage.EntryWrite(kept, now)
	applied := true
	patch.RolloverApplied = &applied
	if err := e.store.MergeEntry(userID, today, patch); err != nil {
		return 0, fmt.Errorf("failed to rewrite entry for %s: %w", today, err)
	}

	logger.Debug("manual rollover", "user", userID, "from", today, "to", tomorrow, "moved", len(moved))
	return len(moved), nil
}

// PlanDate loads or initializes the entry for a (typically future) date with
// routine injection but no carryover.
func (e *Engine) PlanDate(userID, date string) (models.Entry, error) {
	if err := checkDate(date); err != nil {
		return models.Entry{}, err
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.loadOrNewEntry(userID, date)
	if err != nil {
		return models.Entry{}, err
	}

	if err := e.injectRoutines(userID, &entry); err != nil {
		return models.Entry{}, err
	}

	now := e.now()
	if err := e.store.MergeEntry(userID, date, storage.EntryWrite(entry.Tasks, now)); err != nil {
		return models.Entry{}, fmt.Errorf("failed to write entry for %s: %w", date, err)
	}

	entry.Recount()
	entry.Timestamp = now
	return entry, nil
}

// AddTask appends an ad hoc task to the date's entry.
func (e *Engine) AddTask(userID, date, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, fmt.Errorf("task title cannot be empty")
	}
	if err := checkDate(date); err != nil {
		return models.Task{}, err
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.loadOrNewEntry(userID, date)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          uuid.New().String(),
		Title:       title,
		RoutineType: models.RoutineNone,
	}
	entry.Tasks = append(entry.Tasks, task)

	if err := e.store.MergeEntry(userID, date, storage.EntryWrite(entry.Tasks, e.now())); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ToggleTask flips a task's completed flag and returns the task's new state.
func (e *Engine) ToggleTask(userID, date, taskID string) (models.Task, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.store.GetEntry(userID, date)
	if err != nil {
		return models.Task{}, err
	}

	for i := range entry.Tasks {
		if entry.Tasks[i].ID == taskID {
			entry.Tasks[i].Completed = !entry.Tasks[i].Completed
			if err := e.store.MergeEntry(userID, date, storage.EntryWrite(entry.Tasks, e.now())); err != nil {
				return models.Task{}, err
			}
			return entry.Tasks[i], nil
		}
	}

	return models.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, storage.ErrNotFound)
}

// DeleteTask removes a task from the date's entry.
func (e *Engine) DeleteTask(userID, date, taskID string) error {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := e.store.GetEntry(userID, date)
	if err != nil {
		return err
	}

	kept := entry.Tasks[:0:0]
	found := false
	for _, t := range entry.Tasks {
		if t.ID == taskID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("task %s on %s: %w", taskID, date, storage.ErrNotFound)
	}

	return e.store.MergeEntry(userID, date, storage.EntryWrite(kept, e.now()))
}

func (e *Engine) loadOrNewEntry(userID, date string) (models.Entry, error) {
	entry, err := e.store.GetEntry(userID, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Entry{Date: date}, nil
		}
		return models.Entry{}, err
	}
	return entry, nil
}

// findRolloverSource locates the most recent entry strictly before today
// within the bounded lookback window. It returns nil when no candidate
// exists or the candidate has already been used as a rollover source.
func (e *Engine) findRolloverSource(userID, today string) (*models.Entry, error) {
	recent, err := e.store.QueryRecentEntries(userID, constants.RolloverLookback)
	if err != nil {
		return nil, err
	}

	for i := range recent {
		if recent[i].Date >= today {
			continue
		}
		if recent[i].RolloverApplied {
			return nil, nil
		}
		return &recent[i], nil
	}
	return nil, nil
}

// injectRoutines appends tasks for routine titles not already present in the
// entry, morning list first. Membership is by title; within the routine
// lists only the first occurrence of a duplicated title is considered.
func (e *Engine) injectRoutines(userID string, entry *models.Entry) error {
	routines, err := e.store.GetRoutines(userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	seen := make(map[string]bool, len(entry.Tasks))
	for _, t := range entry.Tasks {
		seen[t.Title] = true
	}

	for _, rt := range []models.RoutineType{models.RoutineMorning, models.RoutineNight} {
		for _, title := range routines.ForType(rt) {
			if title == "" || seen[title] {
				continue
			}
			seen[title] = true
			entry.Tasks = append(entry.Tasks, models.Task{
				ID:          uuid.New().String(),
				Title:       title,
				RoutineType: rt,
			})
		}
	}

	return nil
}

// synthesizeCarryover builds fresh records for the incomplete ad hoc tasks in
// the given list. Carryover copies a task into a new record; it never moves
// the original, and routine-tagged tasks are excluded because the next day's
// injection regenerates them.
func synthesizeCarryover(tasks []models.Task) []models.Task {
	var rolled []models.Task
	for _, t := range tasks {
		if t.Completed || t.RoutineType != models.RoutineNone {
			continue
		}
		rolled = append(rolled, models.Task{
			ID:          uuid.New().String(),
			Title:       t.Title,
			RoutineType: models.RoutineNone,
		})
	}
	return rolled
}

func checkDate(date string) error {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return nil
}
