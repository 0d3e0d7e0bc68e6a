package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vellumlabs/dotstrap/internal/ansible"
	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/git"
	"github.com/vellumlabs/dotstrap/internal/inventory"
	"github.com/vellumlabs/dotstrap/internal/pacman"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

// runDoctor handles the `dotstrap doctor` subcommand: report what a
// bootstrap run would find, without changing anything.
// Returns exit code 1 when a check that `dotstrap install` depends on fails.
func runDoctor(args []string) (int, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configFile := fs.String("config", "", "configuration file (default: ~/.config/dotstrap/config.lua)")
	if err := fs.Parse(args); err != nil {
		return 1, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false
	check := func(ok bool, okMsg, failMsg string) {
		if ok {
			fmt.Printf("✓ %s\n", okMsg)
		} else {
			fmt.Printf("✗ %s\n", failMsg)
			failed = true
		}
	}
	note := func(format string, a ...any) {
		fmt.Printf("- %s\n", fmt.Sprintf(format, a...))
	}

	detector := platform.NewDetector()
	info, err := detector.Detect(ctx)
	if err != nil {
		return 1, fmt.Errorf("detect platform: %w", err)
	}

	check(info.IsLinux(),
		fmt.Sprintf("Platform: %s/%s", info.OS, info.Arch),
		fmt.Sprintf("Platform: %s/%s (only Linux is supported)", info.OS, info.Arch))
	if distro := info.GetDistro(); distro != nil {
		note("Distribution: %s (family %s)", distro.ID, distro.Family)
	}

	marker := platform.NewArchMarkerCheck("/")
	if marker.Present() {
		note("Distribution marker %s present; package installation enabled", marker.Path())
	} else {
		note("Distribution marker %s absent; package installation will be skipped", marker.Path())
	}

	cfg, err := loadConfig(ctx, *configFile, detector)
	if err != nil {
		fmt.Printf("✗ Configuration: %v\n", err)
		return 1, nil
	}
	if err := cfg.Validate(); err != nil {
		check(false, "", fmt.Sprintf("Configuration: %v", err))
	} else {
		check(true, "Configuration valid", "")
	}

	if marker.Present() {
		pm := pacman.NewClient()
		check(pm.Available(), "pacman available", "pacman not found on PATH")
	}

	ab := ansible.NewClient()
	check(ab.Available(), "ansible-playbook available",
		"ansible-playbook not found on PATH (installed during `dotstrap install` on supported distributions)")

	playbook, err := config.ExpandHome(cfg.Playbook.Path)
	if err != nil {
		return 1, err
	}
	if _, err := os.Stat(playbook); err == nil {
		check(true, fmt.Sprintf("Playbook %s present", playbook), "")
	} else {
		check(false, "", fmt.Sprintf("Playbook %s missing (run `dotstrap init`)", playbook))
	}

	inv := inventory.NewManager(cfg.Inventory.Path)
	if !inv.Exists() {
		note("Inventory %s not created yet", inv.Path())
	} else {
		entries, err := inv.List()
		if err != nil {
			check(false, "", fmt.Sprintf("Inventory %s unreadable: %v", inv.Path(), err))
		} else {
			declared := false
			for _, e := range entries {
				if e.Host() == cfg.Inventory.Host {
					declared = true
					break
				}
			}
			if declared {
				note("Inventory %s declares %s", inv.Path(), cfg.Inventory.Host)
			} else {
				note("Inventory %s exists but does not declare %s yet", inv.Path(), cfg.Inventory.Host)
			}
		}
	}

	if cfg.Dotfiles.Repo != "" {
		repoPath, err := config.ExpandHome(cfg.Dotfiles.Repo)
		if err != nil {
			return 1, err
		}
		repo := git.NewClient(repoPath, cfg.Dotfiles.Branch)
		isRepo, err := repo.IsRepo(ctx)
		switch {
		case err != nil:
			check(false, "", fmt.Sprintf("Dotfiles repo %s: %v", repoPath, err))
		case !isRepo:
			note("Dotfiles repo %s not checked out", repoPath)
		default:
			head, err := repo.HeadCommit(ctx)
			if err != nil {
				check(false, "", fmt.Sprintf("Dotfiles repo %s: %v", repoPath, err))
				break
			}
			dirty, err := repo.IsDirty(ctx)
			if err != nil {
				check(false, "", fmt.Sprintf("Dotfiles repo %s: %v", repoPath, err))
				break
			}
			state := "clean"
			if dirty {
				state = "has local changes"
			}
			note("Dotfiles repo %s at %.7s (%s)", repoPath, head, state)
		}
	}

	if failed {
		return 1, nil
	}
	fmt.Println("All checks passed.")
	return 0, nil
}
