package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/daybook/internal/constants"
)

// newJSONStoreFile writes a fake JSON store and returns its manager. JSON
// stores take the plain file-copy path, which keeps these tests driver-free.
func newJSONStoreFile(t *testing.T, content string) (*Manager, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "daybook.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write store file: %v", err)
	}
	return NewManager(path), path
}

func TestCreateBackup(t *testing.T) {
	mgr, _ := newJSONStoreFile(t, `{"version":1}`)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Dir(backupPath) != mgr.GetBackupDir() {
		t.Errorf("backup written outside backup dir: %s", backupPath)
	}
	if filepath.Ext(backupPath) != ".json" {
		t.Errorf("backup should keep the store extension, got %s", backupPath)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(data) != `{"version":1}` {
		t.Errorf("backup content mismatch: %q", data)
	}
}

func TestCreateBackupMissingStore(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error for missing store")
	}
}

func TestCreateBackupCollisionsGetUniqueNames(t *testing.T) {
	mgr, _ := newJSONStoreFile(t, `{}`)

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("backup %d failed: %v", i, err)
		}
		if seen[path] {
			t.Fatalf("duplicate backup path: %s", path)
		}
		seen[path] = true
	}
}

func TestListBackups(t *testing.T) {
	mgr, _ := newJSONStoreFile(t, `{}`)
	dir := mgr.GetBackupDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("failed to create backup dir: %v", err)
	}

	for _, name := range []string{
		constants.BackupFilePrefix + "20260301-0900.json",
		constants.BackupFilePrefix + "20260302-0900.json",
		constants.BackupFilePrefix + "20260302-090015.json",
		"unrelated.json",
		constants.BackupFilePrefix + "20260301-0900.db", // wrong suffix for this store
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	if filepath.Base(backups[0].Path) != constants.BackupFilePrefix+"20260302-090015.json" {
		t.Errorf("expected newest first, got %s", backups[0].Path)
	}
}

func TestListBackupsEmptyDir(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "daybook.json"))
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestRotateBackups(t *testing.T) {
	mgr, _ := newJSONStoreFile(t, `{}`)
	dir := mgr.GetBackupDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("failed to create backup dir: %v", err)
	}

	total := constants.MaxBackups + 3
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("%s202603%02d-0900.json", constants.BackupFilePrefix, i+1)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write backup %d: %v", i, err)
		}
	}

	if err := mgr.rotateBackups(); err != nil {
		t.Fatalf("rotateBackups failed: %v", err)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}

	// The oldest days were dropped.
	for _, b := range backups {
		if filepath.Base(b.Path) == constants.BackupFilePrefix+"20260301-0900.json" {
			t.Error("oldest backup should have been rotated away")
		}
	}
}

func TestRestoreBackup(t *testing.T) {
	mgr, storePath := newJSONStoreFile(t, `{"version":1,"state":"old"}`)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := os.WriteFile(storePath, []byte(`{"version":1,"state":"new"}`), 0600); err != nil {
		t.Fatalf("failed to overwrite store: %v", err)
	}

	if err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("failed to read restored store: %v", err)
	}
	if string(data) != `{"version":1,"state":"old"}` {
		t.Errorf("store not restored: %q", data)
	}

	// The pre-restore state was snapshotted.
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	foundSnapshot := false
	for _, b := range backups {
		content, err := os.ReadFile(b.Path)
		if err != nil {
			t.Fatalf("failed to read %s: %v", b.Path, err)
		}
		if string(content) == `{"version":1,"state":"new"}` {
			foundSnapshot = true
		}
	}
	if !foundSnapshot {
		t.Error("restore should snapshot the current store first")
	}
}

func TestRestoreBackupRejectsMissingOrEmpty(t *testing.T) {
	mgr, _ := newJSONStoreFile(t, `{}`)

	if err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing backup")
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatalf("failed to write empty file: %v", err)
	}
	if err := mgr.RestoreBackup(empty); err == nil {
		t.Error("expected error for empty backup")
	}
}

func TestTrimCounterSuffix(t *testing.T) {
	cases := map[string]string{
		"20260302-0900":     "20260302-0900",
		"20260302-090015":   "20260302-090015",
		"20260302-0900-1":   "20260302-0900",
		"20260302-090015-3": "20260302-090015",
		"20260302-0900-abc": "20260302-0900-abc",
	}
	for in, want := range cases {
		if got := trimCounterSuffix(in); got != want {
			t.Errorf("trimCounterSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}
