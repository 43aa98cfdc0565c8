package sqlite

import (
	"path/filepath"
	"testing"
)

// TestDriverInfo verifies the build-selected driver is consistently
// reported.
func TestDriverInfo(t *testing.T) {
	if DriverName() == "" {
		t.Error("DriverName should not be empty")
	}
	switch DriverType() {
	case "purego":
		if IsCGO() {
			t.Error("purego driver should not report CGO")
		}
	case "cgo":
		if !IsCGO() {
			t.Error("cgo driver should report CGO")
		}
	default:
		t.Errorf("unexpected driver type %q", DriverType())
	}
}

// TestOpenRoundTrip verifies basic statement execution through the
// selected driver.
func TestOpenRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE kv (k text primary key, v text)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec("INSERT INTO kv VALUES (?, ?)", "tempo", "4=100"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v string
	if err := db.QueryRow("SELECT v FROM kv WHERE k = ?", "tempo").Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "4=100" {
		t.Errorf("v = %q, want %q", v, "4=100")
	}
}
