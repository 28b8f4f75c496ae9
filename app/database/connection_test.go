package database

import (
	"path/filepath"
	"testing"
)

func TestNewConnection(t *testing.T) {
	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "feeds.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Expected open connection, got: %v", err)
	}
}

func TestNewConnection_BadPath(t *testing.T) {
	// /dev/null is not a directory, so the parent cannot be created.
	_, err := NewConnection("/dev/null/sub/feeds.db")
	if err == nil {
		t.Error("Expected error for an uncreatable database path")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := NewConnection(filepath.Join(t.TempDir(), "feeds.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer db.Close()

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if version == 0 {
		t.Error("Expected a nonzero schema version")
	}
	if dirty {
		t.Error("Expected clean migration state")
	}

	again, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected second run to be a no-op, got: %v", err)
	}
	if again != version {
		t.Errorf("Expected version %d after re-run, got %d", version, again)
	}
	if dirty {
		t.Error("Expected clean migration state after re-run")
	}
}
