package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vellumlabs/dotstrap/internal/platform"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		BaseDir:      t.TempDir(),
		PlatformInfo: &platform.Info{OS: "linux", Arch: "amd64"},
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{PlatformInfo: &platform.Info{}}); err == nil {
		t.Error("NewManager should reject an empty BaseDir")
	}
	if _, err := NewManager(Config{BaseDir: "/tmp/x"}); err == nil {
		t.Error("NewManager should reject nil platform info")
	}
}

func TestManagerDirectoryLayout(t *testing.T) {
	m := newTestManager(t)

	if filepath.Base(m.BinDir()) != "bin" {
		t.Errorf("BinDir = %q, want .../bin", m.BinDir())
	}
	if filepath.Base(m.KeyringDir()) != "keyrings" {
		t.Errorf("KeyringDir = %q, want .../keyrings", m.KeyringDir())
	}
}

func TestIsInstalled(t *testing.T) {
	m := newTestManager(t)

	installed, err := m.IsInstalled(ToolMise)
	if err != nil {
		t.Fatalf("IsInstalled failed: %v", err)
	}
	if installed {
		t.Error("nothing installed yet")
	}

	if err := os.MkdirAll(m.BinDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	binPath := filepath.Join(m.BinDir(), "mise")
	if err := os.WriteFile(binPath, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Present but not executable does not count as installed.
	installed, err = m.IsInstalled(ToolMise)
	if err != nil {
		t.Fatalf("IsInstalled failed: %v", err)
	}
	if installed {
		t.Error("non-executable file must not count as installed")
	}

	if err := os.Chmod(binPath, 0o755); err != nil {
		t.Fatal(err)
	}
	installed, err = m.IsInstalled(ToolMise)
	if err != nil {
		t.Fatalf("IsInstalled failed: %v", err)
	}
	if !installed {
		t.Error("executable file should count as installed")
	}
}

func TestFetchRequiresKeyringForSignedTool(t *testing.T) {
	m := newTestManager(t)

	// mise signs releases; without a trusted key the fetch must fail
	// before any network traffic.
	_, err := m.Fetch(context.Background(), ToolMise, "")
	if err == nil {
		t.Fatal("expected error without a trusted key")
	}
	if !strings.Contains(err.Error(), "no trusted key") {
		t.Errorf("err = %v, want trusted-key failure", err)
	}
}

func TestFetchUnknownTool(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Fetch(context.Background(), Tool("htop"), "1.0.0"); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestFetchUnpinnedVersion(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Fetch(context.Background(), Tool("unknown"), ""); err == nil {
		t.Error("expected error when no version is pinned")
	}
}

func TestImportKey(t *testing.T) {
	m := newTestManager(t)

	keyringDir := t.TempDir()
	installTestKeyring(t, keyringDir, ToolMise)

	if err := m.ImportKey(ToolMise, KeyringPath(keyringDir, ToolMise)); err != nil {
		t.Fatalf("ImportKey failed: %v", err)
	}
	if !KeyringExists(m.KeyringDir(), ToolMise) {
		t.Error("key should exist after import")
	}
}
