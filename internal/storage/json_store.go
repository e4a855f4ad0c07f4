package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianstephens/daybook/internal/models"
)

type userDoc struct {
	Profile models.Profile          `json:"profile"`
	Entries map[string]models.Entry `json:"entries"`
}

type fileStore struct {
	Version int                 `json:"version"`
	Users   map[string]*userDoc `json:"users"`
}

// JSONStore keeps the whole ledger in a single JSON file. It exists for
// portable single-user setups and for tests; every write rewrites the file.
type JSONStore struct {
	path  string
	store *fileStore
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &fileStore{
		Version: 1,
		Users:   make(map[string]*userDoc),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	if s.store != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'daybook init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &fileStore{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if s.store.Users == nil {
		s.store.Users = make(map[string]*userDoc)
	}
	for _, doc := range s.store.Users {
		if doc.Entries == nil {
			doc.Entries = make(map[string]models.Entry)
		}
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) user(userID string) (*userDoc, bool) {
	if s.store == nil {
		return nil, false
	}
	doc, ok := s.store.Users[userID]
	return doc, ok
}

// ensureUser returns the user document, creating an empty one on first write.
func (s *JSONStore) ensureUser(userID string) (*userDoc, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	doc, ok := s.store.Users[userID]
	if !ok {
		doc = &userDoc{
			Profile: models.Profile{UserID: userID},
			Entries: make(map[string]models.Entry),
		}
		s.store.Users[userID] = doc
	}
	return doc, nil
}

func (s *JSONStore) GetProfile(userID string) (models.Profile, error) {
	doc, ok := s.user(userID)
	if !ok {
		return models.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return doc.Profile, nil
}

func (s *JSONStore) SaveProfile(profile models.Profile) error {
	doc, err := s.ensureUser(profile.UserID)
	if err != nil {
		return err
	}
	doc.Profile = profile
	return s.save()
}

func (s *JSONStore) GetAllProfiles() ([]models.Profile, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	profiles := make([]models.Profile, 0, len(s.store.Users))
	for _, doc := range s.store.Users {
		profiles = append(profiles, doc.Profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UserID < profiles[j].UserID
	})

	return profiles, nil
}

func (s *JSONStore) GetRoutines(userID string) (models.Routines, error) {
	doc, ok := s.user(userID)
	if !ok {
		return models.Routines{}, fmt.Errorf("routines for %s: %w", userID, ErrNotFound)
	}
	return doc.Profile.Routines, nil
}

func (s *JSONStore) SaveRoutines(userID string, routines models.Routines) error {
	doc, err := s.ensureUser(userID)
	if err != nil {
		return err
	}
	doc.Profile.Routines = routines
	return s.save()
}

func (s *JSONStore) GetEntry(userID, date string) (models.Entry, error) {
	doc, ok := s.user(userID)
	if !ok {
		return models.Entry{}, fmt.Errorf("entry %s/%s: %w", userID, date, ErrNotFound)
	}
	entry, ok := doc.Entries[date]
	if !ok {
		return models.Entry{}, fmt.Errorf("entry %s/%s: %w", userID, date, ErrNotFound)
	}
	return entry, nil
}

func (s *JSONStore) MergeEntry(userID, date string, patch EntryPatch) error {
	doc, err := s.ensureUser(userID)
	if err != nil {
		return err
	}

	entry, ok := doc.Entries[date]
	if !ok {
		entry = models.Entry{Date: date}
	}
	patch.Apply(&entry)
	doc.Entries[date] = entry

	return s.save()
}

func (s *JSONStore) QueryRecentEntries(userID string, limit int) ([]models.Entry, error) {
	doc, ok := s.user(userID)
	if !ok {
		return nil, nil
	}

	entries := make([]models.Entry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		entries = append(entries, entry)
	}
	// Ties happen when one operation touches two entries with a single
	// clock reading (a rollover writes the new day and closes the old one);
	// the newer date must win so it is found first.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return entries[i].Date > entries[j].Date
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *JSONStore) GetAllEntries(userID string) ([]models.Entry, error) {
	doc, ok := s.user(userID)
	if !ok {
		return nil, nil
	}

	entries := make([]models.Entry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})

	return entries, nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
