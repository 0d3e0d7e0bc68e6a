package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/vellumlabs/dotstrap/internal/platform"
	"github.com/vellumlabs/dotstrap/internal/shell"
)

// runActivate handles the `dotstrap activate <shell>` subcommand. By
// default it prints the activation script for eval by the hook line;
// --setup wires the hook line into the shell's rc file instead.
func runActivate(args []string) error {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	setup := fs.Bool("setup", false, "add the hook line to the shell's rc file")
	backup := fs.Bool("backup", false, "back up the rc file before modifying it (with --setup)")
	force := fs.Bool("force", false, "add the hook even if one is present (with --setup)")
	dryRun := fs.Bool("dry-run", false, "show what --setup would do without changing anything")
	configFile := fs.String("config", "", "configuration file (default: ~/.config/dotstrap/config.lua)")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	var shellType shell.ShellType
	if fs.NArg() >= 1 {
		shellType = shell.ShellType(fs.Arg(0))
	} else {
		shellType = shell.DetectShell()
	}
	if err := shell.ValidateShell(shellType); err != nil {
		return fmt.Errorf("%w\nusage: dotstrap activate <shell>", err)
	}

	if *setup {
		result, err := shell.Setup(shellType, shell.SetupOptions{
			Force:  *force,
			Backup: *backup,
			DryRun: *dryRun,
		})
		if err != nil {
			return err
		}
		switch {
		case result.AlreadyPresent:
			fmt.Printf("✓ %s already contains the dotstrap hook\n", result.RCFile)
		case *dryRun:
			fmt.Printf("Would add to %s:\n  %s\n", result.RCFile, result.HookCommand)
		default:
			fmt.Printf("✓ Added to %s:\n  %s\n", result.RCFile, result.HookCommand)
			if result.BackupPath != "" {
				fmt.Printf("  (backup at %s)\n", result.BackupPath)
			}
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := loadConfig(ctx, *configFile, platform.NewDetector())
	if err != nil {
		return err
	}

	script, err := shell.Script(shellType, cfg.Shell)
	if err != nil {
		return err
	}
	fmt.Print(script)
	return nil
}
