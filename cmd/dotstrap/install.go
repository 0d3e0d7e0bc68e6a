package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vellumlabs/dotstrap/internal/ansible"
	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/git"
	"github.com/vellumlabs/dotstrap/internal/installer"
	"github.com/vellumlabs/dotstrap/internal/inventory"
	"github.com/vellumlabs/dotstrap/internal/pacman"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

// runInstall handles the `dotstrap install` subcommand.
// Returns the process exit code alongside any error to report.
func runInstall(args []string) (int, error) {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	configFile := fs.String("config", "", "configuration file (default: ~/.config/dotstrap/config.lua)")
	playbookPath := fs.String("playbook", "", "playbook path override")
	inventoryPath := fs.String("inventory", "", "inventory file override")
	skipUpgrade := fs.Bool("skip-upgrade", false, "skip the full system upgrade")
	dryRun := fs.Bool("dry-run", false, "report the plan without executing mutating steps")
	sync := fs.Bool("sync", false, "pull the dotfiles repository before running the playbook")
	if err := fs.Parse(args); err != nil {
		return 1, nil // flag package already printed the error
	}

	// The playbook run is interactive; Ctrl-C cancels the whole flow.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := platform.NewDetector()

	cfg, err := loadConfig(ctx, *configFile, detector)
	if err != nil {
		return 1, err
	}
	if *playbookPath != "" {
		cfg.Playbook.Path = *playbookPath
	}
	if *inventoryPath != "" {
		cfg.Inventory.Path = *inventoryPath
	}
	if *skipUpgrade {
		cfg.Options.SkipUpgrade = true
	}
	if err := cfg.Validate(); err != nil {
		return 1, err
	}

	dataDir, err := dataDir()
	if err != nil {
		return 1, err
	}

	var invOpts []inventory.Option
	if cfg.Inventory.WorldWritable {
		invOpts = append(invOpts, inventory.WithWorldWritable())
	}

	opts := installer.Options{
		Detector:   detector,
		Marker:     platform.NewArchMarkerCheck("/"),
		Packages:   pacman.NewClient(),
		Playbooks:  ansible.NewClient(),
		Inventory:  inventory.NewManager(cfg.Inventory.Path, invOpts...),
		JournalDir: filepath.Join(dataDir, "journal"),
		DryRun:     *dryRun,
		Out:        os.Stdout,
	}

	if *sync && cfg.Dotfiles.Repo != "" {
		repoPath, err := config.ExpandHome(cfg.Dotfiles.Repo)
		if err != nil {
			return 1, err
		}
		opts.Repo = git.NewClient(repoPath, cfg.Dotfiles.Branch)
	}

	ins, err := installer.New(cfg, opts)
	if err != nil {
		return 1, err
	}

	if _, err := ins.Run(ctx); err != nil {
		var unsupported *installer.UnsupportedOSError
		if errors.As(err, &unsupported) {
			fmt.Fprintf(os.Stderr, "Unsupported operating system: %s\n", unsupported.Kernel)
			return 1, nil
		}
		return 1, err
	}
	return 0, nil
}
