package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// Well-known entries of a workspace.
const (
	SourceDirName  = "source"
	PackageDirName = "package"
	JournalName    = "journal.db"
)

// Manager handles workspace operations (both temporary and persistent)
type Manager struct {
	baseDir    string
	path       string
	persistent bool // If true, use baseDir directly without timestamps
}

// NewManager creates a new workspace manager with ephemeral timestamped directories
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a workspace manager rooted at baseDir.
// The directory is not removed on Cleanup().
func NewPersistentManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = ".recipebuilder"
	}
	return &Manager{
		baseDir:    baseDir,
		path:       baseDir,
		persistent: true,
	}
}

// Create creates the workspace directory.
// For ephemeral mode: creates a timestamped directory
// For persistent mode: ensures the fixed directory exists
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.path, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create persistent workspace directory").
				WithContext("path", m.path).Build()
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.path))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace base directory").
			WithContext("path", m.baseDir).Build()
	}
	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("recipebuilder-%s-", timestamp))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace directory").
			WithContext("path", m.baseDir).Build()
	}

	m.path = dir
	slog.Info("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory.
func (m *Manager) Path() string { return m.path }

// Persistent reports whether the workspace survives Cleanup.
func (m *Manager) Persistent() bool { return m.persistent }

// SourceDir is where sources are cloned.
func (m *Manager) SourceDir() string { return filepath.Join(m.path, SourceDirName) }

// PackageDir is the folder of one binary package.
func (m *Manager) PackageDir(packageID string) string {
	return filepath.Join(m.path, PackageDirName, packageID)
}

// JournalPath is the default run journal location.
func (m *Manager) JournalPath() string { return filepath.Join(m.path, JournalName) }

// Cleanup removes the workspace directory
// For persistent mode: does nothing (keeps sources for later phases)
// For ephemeral mode: removes the timestamped directory
func (m *Manager) Cleanup() error {
	if m.path == "" {
		return nil
	}

	if m.persistent {
		slog.Debug("Skipping cleanup for persistent workspace", logfields.Path(m.path))
		return nil
	}

	if err := os.RemoveAll(m.path); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to cleanup workspace").
			WithContext("path", m.path).Build()
	}

	slog.Info("Cleaned up workspace", logfields.Path(m.path))
	m.path = ""
	return nil
}

