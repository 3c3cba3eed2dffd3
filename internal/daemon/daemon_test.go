package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWithConfigWiresServices(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.Dir = dir

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.DB == nil || d.Guard == nil || d.Ledger == nil || d.Agg == nil || d.Facade == nil || d.Server == nil {
		t.Fatalf("daemon not fully wired: %+v", d)
	}

	// The store lives in the configured directory.
	if _, err := os.Stat(filepath.Join(dir, "timecard.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}

	// The facade is live end to end.
	u, err := d.Facade.CreateUser("alice", true)
	if err != nil {
		t.Fatalf("CreateUser through daemon: %v", err)
	}
	if _, err := d.Facade.GetUser(u.ID); err != nil {
		t.Errorf("GetUser through daemon: %v", err)
	}
}

func TestNewUsesTimecardHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TIMECARD_HOME", dir)

	d, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer d.Close()

	if _, err := os.Stat(filepath.Join(dir, "timecard.db")); err != nil {
		t.Errorf("database file missing under TIMECARD_HOME: %v", err)
	}
}
