package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"proctor/pkg/logging"
)

// Workspace is the per-run scratch directory handed to every test through
// the standard temp-dir variables, so parallel runs never share state and
// one sweep removes everything the tests left behind.
type Workspace struct {
	dir      string
	preserve bool
}

// NewWorkspace creates a fresh scratch directory under the system temp dir.
// When preserve is set the directory survives Cleanup for inspection.
func NewWorkspace(preserve bool) (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), "proctor-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	logging.Debug("Runner", "created workspace %s", dir)
	return &Workspace{dir: dir, preserve: preserve}, nil
}

// Dir returns the workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Environ returns the temp-dir exports for test processes. All four common
// spellings point at the workspace because tests disagree on which one
// they read.
func (w *Workspace) Environ() []string {
	return []string{
		"TMPDIR=" + w.dir,
		"TMP=" + w.dir,
		"TEMP=" + w.dir,
		"TEMPDIR=" + w.dir,
	}
}

// Cleanup removes the workspace unless it is preserved.
func (w *Workspace) Cleanup() error {
	if w.preserve {
		logging.Info("Runner", "preserving workspace %s", w.dir)
		return nil
	}
	return os.RemoveAll(w.dir)
}
