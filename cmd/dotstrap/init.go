package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vellumlabs/dotstrap/internal/config"
)

// playbookSkeleton is written when no playbook exists yet, so a first
// `dotstrap install` has something runnable to hand off to.
const playbookSkeleton = `---
- name: Set up this machine
  hosts: localhost
  tasks: []
`

// runInit handles the `dotstrap init` subcommand: scaffold the
// configuration file and, unless present, a playbook skeleton.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing configuration file")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	path, err := configPath("")
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.Default()
	content, err := config.NewGenerator().Generate(cfg)
	if err != nil {
		return fmt.Errorf("generate configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	fmt.Printf("✓ Wrote %s\n", path)

	playbook, err := config.ExpandHome(cfg.Playbook.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(playbook); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(playbook), 0o755); err != nil {
			return fmt.Errorf("create playbook directory: %w", err)
		}
		if err := os.WriteFile(playbook, []byte(playbookSkeleton), 0o644); err != nil {
			return fmt.Errorf("write playbook skeleton: %w", err)
		}
		fmt.Printf("✓ Wrote %s\n", playbook)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s\n", path)
	fmt.Printf("  2. Fill in %s\n", playbook)
	fmt.Println("  3. Run `dotstrap install`")
	return nil
}
