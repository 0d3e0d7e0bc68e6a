// Package testutil provides utilities for testing dotstrap in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated test directories for each test. This
// ensures tests never touch:
// - The user's real shell and dotfiles configuration
// - The system inventory under /etc/ansible
// - Run journals from real bootstrap runs
//
// Cleanup is handled by t.TempDir(), so callers don't need to clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Setenv("DOTSTRAP_CONFIG_DIR", filepath.Join(tmpDir, "config"))
	t.Setenv("DOTSTRAP_DATA_DIR", filepath.Join(tmpDir, "data"))

	dirs := []string{
		filepath.Join(tmpDir, "home"),
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "data"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
