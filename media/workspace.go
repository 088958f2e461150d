package media

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kbukum/scribekit/errors"
)

// Workspace is a per-run scratch directory for downloaded and converted
// audio. Callers must Close it when the run is finished.
type Workspace struct {
	Root string
}

// NewWorkspace creates a uniquely named directory under base. An empty
// base uses the system temp directory.
func NewWorkspace(base string) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	root := filepath.Join(base, "scribe-media-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.StagingFailed(err)
	}
	return &Workspace{Root: root}, nil
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Root, name)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Root)
}
