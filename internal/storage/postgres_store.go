package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/julianstephens/daybook/internal/migration"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/migrations"
)

// PostgresStore backs the ledger with a shared PostgreSQL database, the
// deployment shape for multi-user boards.
type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		connStr: connStr,
	}
}

// HasEmbeddedCredentials reports whether a URL-style connection string
// carries a password. Credentials belong in the OS keyring or the
// environment, never on the command line.
func HasEmbeddedCredentials(connStr string) bool {
	u, err := url.Parse(connStr)
	if err != nil {
		return false
	}
	if u.User == nil {
		return false
	}
	_, hasPassword := u.User.Password()
	return hasPassword
}

func (s *PostgresStore) open() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *PostgresStore) Init() error {
	if err := s.open(); err != nil {
		return err
	}

	_, err := s.newRunner().ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrate applies any pending migrations to an existing database.
func (s *PostgresStore) Migrate() error {
	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	_, err := s.newRunner().ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	return err
}

func (s *PostgresStore) Load() error {
	if s.db != nil {
		return nil
	}
	if err := s.open(); err != nil {
		return err
	}
	return s.newRunner().ValidateVersion()
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for diagnostics and migrations commands.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) newRunner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		panic(fmt.Sprintf("embedded postgres migrations missing: %v", err))
	}
	return migration.NewRunner(s.db, subFS)
}

func (s *PostgresStore) GetProfile(userID string) (models.Profile, error) {
	row := s.db.QueryRow(
		"SELECT id, display_name, morning_routine, night_routine FROM users WHERE id = $1", userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *PostgresStore) SaveProfile(profile models.Profile) error {
	morning, night, err := marshalRoutines(profile.Routines)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, display_name, morning_routine, night_routine)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			morning_routine = EXCLUDED.morning_routine,
			night_routine = EXCLUDED.night_routine`,
		profile.UserID, profile.DisplayName, morning, night,
	)
	return err
}

func (s *PostgresStore) GetAllProfiles() ([]models.Profile, error) {
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

func (s *PostgresStore) GetRoutines(userID string) (models.Routines, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return models.Routines{}, err
	}
	return profile.Routines, nil
}

func (s *PostgresStore) SaveRoutines(userID string, routines models.Routines) error {
	morning, night, err := marshalRoutines(routines)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, morning_routine, night_routine)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			morning_routine = EXCLUDED.morning_routine,
			night_routine = EXCLUDED.night_routine`,
		userID, morning, night,
	)
	return err
}

func (s *PostgresStore) GetEntry(userID, date string) (models.Entry, error) {
	row := s.db.QueryRow(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = $1 AND date = $2`, userID, date)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, fmt.Errorf("entry %s/%s: %w", userID, date, ErrNotFound)
		}
		return models.Entry{}, err
	}
	return entry, nil
}

func (s *PostgresStore) MergeEntry(userID, date string, patch EntryPatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", userID); err != nil {
		return err
	}

	// Row-lock the entry so concurrent merges against the same document
	// serialize at the database.
	row := tx.QueryRow(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = $1 AND date = $2 FOR UPDATE`, userID, date)

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
		INSERT INTO entries (
			user_id, date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE SET
			tasks = EXCLUDED.tasks,
			completed_count = EXCLUDED.completed_count,
			total_tasks = EXCLUDED.total_tasks,
			rollover_applied = EXCLUDED.rollover_applied,
			timestamp = EXCLUDED.timestamp`,
		userID, date, string(tasks), entry.CompletedCount, entry.TotalTasks,
		entry.RolloverApplied, entry.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) QueryRecentEntries(userID string, limit int) ([]models.Entry, error) {
	rows, err := s.db.Query(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = $1 ORDER BY timestamp DESC, date DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PostgresStore) GetAllEntries(userID string) ([]models.Entry, error) {
	rows, err := s.db.Query(`
		SELECT date, tasks, completed_count, total_tasks, rollover_applied, timestamp
		FROM entries WHERE user_id = $1 ORDER BY date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PostgresStore) GetConfigPath() string {
	return s.connStr
}
