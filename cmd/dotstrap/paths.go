package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

const configFileName = "config.lua"

// configDir returns the dotstrap configuration directory.
// DOTSTRAP_CONFIG_DIR overrides the default ~/.config/dotstrap.
func configDir() (string, error) {
	if dir := os.Getenv("DOTSTRAP_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dotstrap"), nil
}

// dataDir returns the dotstrap state directory (run journals, fetched
// binaries, keyrings). DOTSTRAP_DATA_DIR overrides the default
// ~/.local/share/dotstrap.
func dataDir() (string, error) {
	if dir := os.Getenv("DOTSTRAP_DATA_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "dotstrap"), nil
}

// configPath returns the configuration file path, honoring an explicit
// override from the command line.
func configPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// loadConfig parses the configuration file, falling back to defaults
// when none exists. An explicit --config path must exist.
func loadConfig(ctx context.Context, override string, detector platform.Detector) (*config.Config, error) {
	path, err := configPath(override)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && override == "" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	parser := config.NewParser(detector)
	cfg, err := parser.ParseFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
