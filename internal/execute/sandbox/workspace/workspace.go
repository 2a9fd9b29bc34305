// Package workspace provides the per-execution scratch directories.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	appErr "codetrainer/pkg/errors"
)

// Manager creates isolated temporary directories under a root.
type Manager struct {
	root string
}

// NewManager prepares root, or uses the system temp dir when root is empty.
func NewManager(root string) (*Manager, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create work root failed")
		}
	}
	return &Manager{root: root}, nil
}

// Root returns the directory new workspaces are created in.
func (m *Manager) Root() string {
	if m.root == "" {
		return os.TempDir()
	}
	return m.root
}

// Acquire creates a fresh workspace. Callers must defer Release right away.
func (m *Manager) Acquire(ctx context.Context, executionID string) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErr.Cancelled(err)
	}
	dir, err := os.MkdirTemp(m.root, "exec-"+sanitize(executionID)+"-")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create workspace failed")
	}
	return &Workspace{dir: dir}, nil
}

// Workspace is one scratch directory owned by a single execution.
type Workspace struct {
	dir        string
	once       sync.Once
	releaseErr error
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile stores content as a file directly inside the workspace.
func (w *Workspace) WriteFile(name, content string) error {
	if name == "" || filepath.Base(name) != name {
		return appErr.ValidationError("file_name", "must be a plain file name")
	}
	if err := os.WriteFile(w.Path(name), []byte(content), 0o644); err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceError, "write %s failed", name)
	}
	return nil
}

// Release removes the directory and everything in it. Safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.releaseErr = appErr.Wrapf(err, appErr.WorkspaceError, "remove workspace failed")
		}
	})
	return w.releaseErr
}

func sanitize(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, id)
	if len(id) > 36 {
		id = id[:36]
	}
	return id
}
