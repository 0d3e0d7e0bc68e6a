// Package fetch downloads, verifies, and installs release binaries for
// hosts where the package manager path is unavailable. Every download
// is verified before extraction: GPG where the tool signs releases,
// SHA256 checksums otherwise.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vellumlabs/dotstrap/internal/platform"
)

// Manager orchestrates tool download, verification, and installation.
type Manager struct {
	binDir     string
	keyringDir string
	info       *platform.Info
	downloader *Downloader
	verifier   *Verifier
}

// Config holds configuration for the fetch manager.
type Config struct {
	// BaseDir is the dotstrap state directory (default: ~/.local/share/dotstrap)
	BaseDir string
	// PlatformInfo contains OS and architecture information
	PlatformInfo *platform.Info
}

// NewManager creates a fetch manager rooted at cfg.BaseDir.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("BaseDir is required")
	}
	if cfg.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	keyringDir := filepath.Join(cfg.BaseDir, "keyrings")
	return &Manager{
		binDir:     filepath.Join(cfg.BaseDir, "bin"),
		keyringDir: keyringDir,
		info:       cfg.PlatformInfo,
		downloader: NewDownloader(filepath.Join(cfg.BaseDir, "cache", "downloads")),
		verifier:   NewVerifier(keyringDir),
	}, nil
}

// BinDir returns the directory binaries are installed into.
func (m *Manager) BinDir() string {
	return m.binDir
}

// KeyringDir returns the directory trusted keys are read from.
func (m *Manager) KeyringDir() string {
	return m.keyringDir
}

// IsInstalled checks if a tool is already installed and executable.
func (m *Manager) IsInstalled(tool Tool) (bool, error) {
	info, err := os.Stat(filepath.Join(m.binDir, tool.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0, nil
}

// Fetch downloads, verifies, and installs one tool. An empty version
// uses the pinned default. A tool that signs its releases fails early
// when its keyring has not been imported, before any network traffic.
func (m *Manager) Fetch(ctx context.Context, tool Tool, version string) (*FetchResult, error) {
	start := time.Now()

	if version == "" {
		version = DefaultVersions[tool]
	}
	if version == "" {
		return nil, fmt.Errorf("no version pinned for %s", tool)
	}

	info, err := buildDownloadInfo(tool, version, m.info)
	if err != nil {
		return nil, err
	}

	if info.SignatureURL != "" && !KeyringExists(m.keyringDir, tool) {
		return nil, fmt.Errorf("no trusted key for %s: import one with `dotstrap fetch --import-key` (expected %s)",
			tool, KeyringPath(m.keyringDir, tool))
	}

	archivePath, err := m.downloader.Fetch(ctx, info, info.URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", tool, err)
	}

	var signaturePath, checksumPath string
	if info.SignatureURL != "" {
		signaturePath, err = m.downloader.Fetch(ctx, info, info.SignatureURL)
		if err != nil {
			return nil, fmt.Errorf("download %s signature: %w", tool, err)
		}
	}
	if info.ChecksumURL != "" {
		checksumPath, err = m.downloader.Fetch(ctx, info, info.ChecksumURL)
		if err != nil {
			return nil, fmt.Errorf("download %s checksum: %w", tool, err)
		}
	}

	method, err := m.verifier.Verify(archivePath, signaturePath, checksumPath, info)
	if err != nil {
		return nil, err
	}

	destPath := filepath.Join(m.binDir, tool.String())
	if err := extractBinary(archivePath, destPath, tool.String()); err != nil {
		return nil, fmt.Errorf("extract %s: %w", tool, err)
	}

	return &FetchResult{
		Tool:     tool,
		Version:  version,
		Path:     destPath,
		Verified: method,
		Elapsed:  time.Since(start),
	}, nil
}

// ImportKey installs a trusted public key for a tool.
func (m *Manager) ImportKey(tool Tool, keyPath string) error {
	return ImportKeyring(m.keyringDir, tool, keyPath)
}
