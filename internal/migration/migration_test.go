package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql": {Data: []byte("CREATE INDEX idx ON t (a);")},
		"001_init.sql":      {Data: []byte("CREATE TABLE t (a TEXT);")},
		"notes.txt":         {Data: []byte("ignored")},
	}

	migrations, err := NewRunner(nil, fsys).ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "init" {
		t.Errorf("wrong first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Errorf("migrations not sorted: %+v", migrations[1])
	}
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no separator":      {"001.sql": {Data: []byte("SELECT 1;")}},
		"non-numeric":       {"abc_init.sql": {Data: []byte("SELECT 1;")}},
		"zero version":      {"000_init.sql": {Data: []byte("SELECT 1;")}},
		"duplicate version": {"001_a.sql": {Data: []byte("SELECT 1;")}, "001_b.sql": {Data: []byte("SELECT 1;")}},
	}

	for name, fsys := range cases {
		if _, err := NewRunner(nil, fsys).ReadMigrationFiles(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestApplyMigrations(t *testing.T) {
	db := newTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
		"002_more.sql": {Data: []byte("CREATE TABLE u (b TEXT);")},
	}
	runner := NewRunner(db, fsys)

	applied, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 applied, got %d", applied)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	// Re-running applies nothing.
	applied, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected 0 applied on re-run, got %d", applied)
	}

	if err := runner.ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion failed on up-to-date schema: %v", err)
	}
}

func TestValidateVersionDetectsDrift(t *testing.T) {
	db := newTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
	}
	runner := NewRunner(db, fsys)

	// Fresh database is behind.
	if err := runner.ValidateVersion(); err == nil {
		t.Error("expected out-of-date error for fresh database")
	}

	// A database ahead of the binary's migrations fails the other way.
	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Error("expected too-new error")
	}
}
