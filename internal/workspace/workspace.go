// Package workspace manages per-build scratch directories.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
	"git.home.luguber.info/inful/imagebuilder/internal/retry"
)

// Manager hands out workspace directories under a fixed scratch root.
// Each build owns <root>/<name> for its lifetime; names are serialized so
// two builds deriving the same name never share a directory.
type Manager struct {
	root   string
	policy retry.Policy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a workspace manager rooted at root.
func NewManager(root string) *Manager {
	if root == "" {
		root = filepath.Join(os.TempDir(), "builds")
	}
	return &Manager{
		root:   root,
		policy: retry.DefaultPolicy(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// WithPolicy overrides the prepare retry policy.
func (m *Manager) WithPolicy(p retry.Policy) *Manager {
	m.policy = p
	return m
}

// Root returns the scratch root all workspaces live under.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the directory a build with the given name uses.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.root, name)
}

// Lock serializes access to a workspace name. The returned function
// releases the name; callers defer it for the duration of their build.
func (m *Manager) Lock(name string) func() {
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Prepare clears and recreates the workspace for name, retrying transient
// filesystem failures. Each attempt removes whatever is present and creates
// a fresh empty directory. Exhausting all attempts returns a classified
// error; the build cannot proceed without a clean directory.
func (m *Manager) Prepare(name string) (string, error) {
	path := m.Path(name)

	attempts := m.policy.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := clean(path); err != nil {
			lastErr = err
			slog.Warn("Workspace clean failed",
				logfields.Path(path),
				logfields.Attempt(attempt),
				logfields.Error(err))
			if attempt < attempts {
				time.Sleep(m.policy.Delay(attempt))
			}
			continue
		}
		slog.Debug("Prepared workspace", logfields.Path(path))
		return path, nil
	}

	return "", apperrors.WorkspacePrepareFailed(path, attempts, lastErr)
}

// clean removes any previous contents and creates an empty directory.
func clean(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove previous contents: %w", err)
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// Teardown removes the workspace for name. Failures are logged and
// swallowed; a leftover directory is reclaimed by the next Prepare for
// the same name or by the sweeper.
func (m *Manager) Teardown(name string) {
	path := m.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		slog.Warn("Workspace teardown failed", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Debug("Removed workspace", logfields.Path(path))
}
