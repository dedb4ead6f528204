package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_EphemeralMode(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.Path()
	if wsPath == "" {
		t.Fatal("Path() returned empty string")
	}
	if !strings.HasPrefix(filepath.Base(wsPath), "recipebuilder-") {
		t.Errorf("Expected timestamped directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); os.IsNotExist(err) {
		t.Errorf("Workspace directory does not exist: %s", wsPath)
	}

	// Cleanup should remove directory
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
}

func TestManager_EphemeralDirectoriesAreDistinct(t *testing.T) {
	tempBase := t.TempDir()
	a, b := NewManager(tempBase), NewManager(tempBase)
	if err := a.Create(); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(); err != nil {
		t.Fatal(err)
	}
	if a.Path() == b.Path() {
		t.Fatalf("expected distinct workspaces, both are %s", a.Path())
	}
}

func TestManager_PersistentMode(t *testing.T) {
	wsPath := filepath.Join(t.TempDir(), ".recipebuilder")
	mgr := NewPersistentManager(wsPath)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if mgr.Path() != wsPath {
		t.Errorf("Expected path %s, got: %s", wsPath, mgr.Path())
	}

	markerFile := filepath.Join(wsPath, "marker.txt")
	if err := os.WriteFile(markerFile, []byte("persistent"), 0o600); err != nil {
		t.Fatalf("Failed to create marker file: %v", err)
	}

	// Cleanup should NOT remove directory in persistent mode
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(markerFile); os.IsNotExist(err) {
		t.Errorf("Marker file was removed from persistent workspace")
	}
}

func TestManager_Layout(t *testing.T) {
	mgr := NewPersistentManager("/ws")
	if got := mgr.SourceDir(); got != filepath.Join("/ws", "source") {
		t.Errorf("SourceDir = %s", got)
	}
	if got := mgr.PackageDir("abc"); got != filepath.Join("/ws", "package", "abc") {
		t.Errorf("PackageDir = %s", got)
	}
	if got := mgr.JournalPath(); got != filepath.Join("/ws", "journal.db") {
		t.Errorf("JournalPath = %s", got)
	}
}

