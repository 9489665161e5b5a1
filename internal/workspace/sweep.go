package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sweep removes leftover workspace directories older than maxAge. Builds in
// flight are safe: their directories were just recreated by Prepare and sit
// well under any reasonable age threshold. Returns how many directories
// were removed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	info, err := os.Stat(m.root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat scratch root %s: %w", m.root, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", m.root)
	}

	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read scratch root: %w", err)
	}

	now := time.Now()
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		entryInfo, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(entryInfo.ModTime()) < maxAge {
			continue
		}

		unlock := m.Lock(entry.Name())
		if err := os.RemoveAll(filepath.Join(m.root, entry.Name())); err == nil {
			removed++
		}
		unlock()
	}

	return removed, nil
}
