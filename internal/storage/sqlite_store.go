package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daybook/internal/migration"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/migrations"
)

// timeLayout is RFC3339 UTC with a fixed-width fractional second so that
// stored timestamps sort lexicographically in write order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'daybook init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Validate schema version using embedded migrations
	return s.newRunner().ValidateVersion()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for diagnostics and migrations commands.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) newRunner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// The embedded tree always contains sqlite/; a failure here means a
		// broken build.
		panic(fmt.Sprintf("embedded sqlite migrations missing: %v", err))
	}
	return migration.NewRunner(s.db, subFS)
}

func (s *SQLiteStore) runMigrations() error {
	_, err := s.newRunner().ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	return err
}

// Migrate applies any pending migrations to an existing database.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.runMigrations()
}

func (s *SQLiteStore) GetProfile(userID string) (models.Profile, error) {
	row := s.db.QueryRow(
		"SELECT id, display_name, morning_routine, night_routine FROM users WHERE id = ?", userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *SQLiteStore) SaveProfile(profile models.Profile) error {
	morning, night, err := marshalRoutines(profile.Routines)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, display_name, morning_routine, night_routine)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			morning_routine = excluded.morning_routine,
			night_routine = excluded.night_routine`,
		profile.UserID, profile.DisplayName, morning, night,
	)
	return err
}

func (s *SQLiteStore) GetAllProfiles() ([]models.Profile, error) {
	rows, err := s.db.Query(
		"SELECT id, display_name, morning_routine, night_routine FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

func (s *SQLiteStore) GetRoutines(userID string) (models.Routines, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return models.Routines{}, err
	}
	return profile.Routines, nil
}

func (s *SQLiteStore) SaveRoutines(userID string, routines models.Routines) error {
	morning, night, err := marshalRoutines(routines)
	if err != nil {
		return err
	}

	// Touches only the routine columns so a concurrent display-name edit is
	// never clobbered.
	_, err = s.db.Exec(`
		INSERT INTO users (id, morning_routine, night_routine)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			morning_routine = excluded.morning_routine,
			night_routine = excluded.night_routine`,
		userID, morning, night,
	)
	return err
}

func (s *SQLiteStore) GetEntry(userID, date string) (models.Entry, error) {
	row := s.db.QueryRow(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = ? AND date = ?`, userID, date)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, fmt.Errorf("entry %s/%s: %w", userID, date, ErrNotFound)
		}
		return models.Entry{}, err
	}
	return entry, nil
}

func (s *SQLiteStore) MergeEntry(userID, date string, patch EntryPatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The user row must exist before an entry can reference it; first entry
	// write materializes a bare profile.
	if _, err := tx.Exec("INSERT OR IGNORE INTO users (id) VALUES (?)", userID); err != nil {
		return err
	}

	row := tx.QueryRow(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = ? AND date = ?`, userID, date)

	entry, err := scanEntry(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		entry = models.Entry{Date: date}
	}
	patch.Apply(&entry)

	tasks, err := json.Marshal(entry.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO entries (
			user_id, date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, date, string(tasks), entry.CompletedCount, entry.TotalTasks,
		entry.RolloverApplied, entry.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) QueryRecentEntries(userID string, limit int) ([]models.Entry, error) {
	// Date breaks timestamp ties so a rollover's destination day sorts ahead
	// of the source it closed with the same clock reading.
	rows, err := s.db.Query(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = ? ORDER BY timestamp DESC, date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *SQLiteStore) GetAllEntries(userID string) ([]models.Entry, error) {
	rows, err := s.db.Query(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = ? ORDER BY date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (models.Profile, error) {
	var p models.Profile
	var morning, night string

	if err := row.Scan(&p.UserID, &p.DisplayName, &morning, &night); err != nil {
		return models.Profile{}, err
	}
	if err := json.Unmarshal([]byte(morning), &p.Routines.Morning); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse morning routine: %w", err)
	}
	if err := json.Unmarshal([]byte(night), &p.Routines.Night); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse night routine: %w", err)
	}

	return p, nil
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	var tasks, timestamp string

	if err := row.Scan(&e.Date, &tasks, &e.CompletedCount, &e.TotalTasks, &e.RolloverApplied, &timestamp); err != nil {
		return models.Entry{}, err
	}
	if err := json.Unmarshal([]byte(tasks), &e.Tasks); err != nil {
		return models.Entry{}, fmt.Errorf("failed to parse tasks for %s: %w", e.Date, err)
	}
	if timestamp != "" {
		ts, err := time.Parse(timeLayout, timestamp)
		if err != nil {
			return models.Entry{}, fmt.Errorf("failed to parse timestamp for %s: %w", e.Date, err)
		}
		e.Timestamp = ts
	}

	return e, nil
}

func collectEntries(rows *sql.Rows) ([]models.Entry, error) {
	var entries []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func marshalRoutines(r models.Routines) (morning, night string, err error) {
	m, err := json.Marshal(r.Morning)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal morning routine: %w", err)
	}
	n, err := json.Marshal(r.Night)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal night routine: %w", err)
	}
	return string(m), string(n), nil
}
