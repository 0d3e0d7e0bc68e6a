package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vellumlabs/dotstrap/internal/fetch"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

// runFetch handles the `dotstrap fetch <tool>` subcommand: download,
// verify, and install a tool binary directly from its releases. This is
// the fallback for hosts where the package-manager path is unavailable.
func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	version := fs.String("version", "", "release version (default: pinned)")
	importKey := fs.String("import-key", "", "import a trusted public key for the tool and exit")
	force := fs.Bool("force", false, "fetch even if the tool is already installed")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dotstrap fetch [options] <tool>\nSupported tools: mise, starship")
	}
	tool := fetch.Tool(fs.Arg(0))
	if _, ok := fetch.DefaultVersions[tool]; !ok {
		return fmt.Errorf("unsupported tool: %s\nSupported tools: mise, starship", tool)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := platform.NewDetector()
	info, err := detector.Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}

	baseDir, err := dataDir()
	if err != nil {
		return err
	}

	mgr, err := fetch.NewManager(fetch.Config{BaseDir: baseDir, PlatformInfo: info})
	if err != nil {
		return err
	}

	if *importKey != "" {
		if err := mgr.ImportKey(tool, *importKey); err != nil {
			return err
		}
		fmt.Printf("✓ Imported trusted key for %s\n", tool)
		return nil
	}

	if !*force {
		installed, err := mgr.IsInstalled(tool)
		if err != nil {
			return err
		}
		if installed {
			fmt.Printf("✓ %s already installed (use --force to refetch)\n", tool)
			return nil
		}
	}

	result, err := mgr.Fetch(ctx, tool, *version)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Installed %s %s to %s (verified: %s, %s)\n",
		result.Tool, result.Version, result.Path, result.Verified, result.Elapsed.Round(time.Millisecond))
	return nil
}
