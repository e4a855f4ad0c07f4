package storage

import (
	"errors"

	"github.com/julianstephens/daybook/internal/models"
)

// ErrNotFound is returned when a referenced profile or entry is absent.
// Callers generally treat it as "empty", not as a failure.
var ErrNotFound = errors.New("not found")

// Provider is the document-store contract the engine and aggregation layers
// run against. Documents are laid out as users/{uid} profile documents with
// per-date entry documents underneath; entry writes go through MergeEntry so
// that fields absent from a payload are never clobbered.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Profiles (users/{uid})
	GetProfile(userID string) (models.Profile, error)
	SaveProfile(profile models.Profile) error
	GetAllProfiles() ([]models.Profile, error)

	// Routines, stored on the profile document. Saving routines never
	// touches other profile fields.
	GetRoutines(userID string) (models.Routines, error)
	SaveRoutines(userID string, routines models.Routines) error

	// Entries (users/{uid}/entries/{YYYY-MM-DD})
	GetEntry(userID, date string) (models.Entry, error)
	MergeEntry(userID, date string, patch EntryPatch) error
	// QueryRecentEntries returns up to limit entries ordered by last-write
	// timestamp descending, ties broken by date descending. The tie-break
	// matters: a rollover stamps its destination write and its source
	// closure with one clock reading, and the destination day must sort
	// first or the next rollover would find the closed source ahead of it.
	QueryRecentEntries(userID string, limit int) ([]models.Entry, error)
	// GetAllEntries returns every entry for the user, for aggregation scans.
	GetAllEntries(userID string) ([]models.Entry, error)

	// Utils
	GetConfigPath() string
}
