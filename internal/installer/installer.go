package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vellumlabs/dotstrap/internal/ansible"
	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/inventory"
	"github.com/vellumlabs/dotstrap/internal/pacman"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

// ErrUnsupportedOS is returned when the host is not a Linux system.
// The bootstrap performs no side effects on such hosts.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// UnsupportedOSError carries the kernel name so the CLI can report it.
type UnsupportedOSError struct {
	Kernel string
}

func (e *UnsupportedOSError) Error() string {
	return fmt.Sprintf("unsupported operating system: %s", e.Kernel)
}

func (e *UnsupportedOSError) Is(target error) bool {
	return target == ErrUnsupportedOS
}

// FailurePolicy decides what a step failure does to the rest of the run.
// The historical shell installer inherited the interpreter's
// continue-on-error default; here every step carries its policy
// explicitly.
type FailurePolicy int

const (
	// Abort stops the run. Steps the rest of the flow depends on use this:
	// a failed package install means the playbook's own dependency is
	// missing, so continuing only moves the failure downstream.
	Abort FailurePolicy = iota

	// Continue records the failure and moves on. Used for steps whose
	// failure does not invalidate the hand-off.
	Continue
)

// RepoSyncer updates the dotfiles checkout before the playbook runs.
type RepoSyncer interface {
	Sync(ctx context.Context) (string, error)
}

// Options configures an Installer beyond its config file.
type Options struct {
	// Detector identifies the host platform.
	Detector platform.Detector

	// Marker is the distribution marker check.
	Marker platform.MarkerCheck

	// Packages is the package manager client.
	Packages pacman.PackageManager

	// Playbooks runs the playbook hand-off.
	Playbooks ansible.Runner

	// Inventory manages the inventory file.
	Inventory *inventory.Manager

	// Repo optionally syncs the dotfiles checkout before the playbook
	// runs. Nil skips the step.
	Repo RepoSyncer

	// JournalDir is where run journals persist. Empty disables journals.
	JournalDir string

	// DryRun reports the plan without executing mutating steps.
	DryRun bool

	// Out receives step progress output. Defaults to os.Stdout.
	Out io.Writer
}

// Installer drives a single bootstrap run.
type Installer struct {
	cfg  *config.Config
	opts Options
}

// New creates an Installer for the given config.
func New(cfg *config.Config, opts Options) (*Installer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Detector == nil {
		return nil, fmt.Errorf("platform detector is required")
	}
	if opts.Packages == nil {
		return nil, fmt.Errorf("package manager is required")
	}
	if opts.Playbooks == nil {
		return nil, fmt.Errorf("playbook runner is required")
	}
	if opts.Inventory == nil {
		return nil, fmt.Errorf("inventory manager is required")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Installer{cfg: cfg, opts: opts}, nil
}

// step is one unit of the linear bootstrap plan.
type step struct {
	name   string
	policy FailurePolicy
	skip   string // non-empty skips the step with this reason
	run    func(ctx context.Context) (string, error)
}

// Run executes the bootstrap flow and returns the run journal.
//
// The flow is strictly linear: detect platform, branch on distribution,
// install dependencies and prepare the inventory when supported, then
// hand off to the playbook runner. On a non-Linux host it returns
// ErrUnsupportedOS before any side effect.
func (ins *Installer) Run(ctx context.Context) (*Journal, error) {
	info, err := ins.opts.Detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	if !info.IsLinux() {
		return nil, &UnsupportedOSError{Kernel: info.KernelName()}
	}

	supported := ins.opts.Marker.Present()

	journal, err := NewJournal(ins.journalDir())
	if err != nil {
		return nil, err
	}
	journal.Platform = info.OS
	if distro := info.GetDistro(); distro != nil {
		journal.Platform = info.OS + "/" + distro.ID
	}

	if supported {
		fmt.Fprintf(ins.opts.Out, "Detected supported distribution (%s)\n", ins.opts.Marker.Path())
	} else {
		fmt.Fprintf(ins.opts.Out, "Distribution marker %s not found; skipping package installation\n", ins.opts.Marker.Path())
	}

	plan := ins.plan(supported)

	for _, s := range plan {
		i := journal.AddStep(s.name)

		if s.skip != "" {
			fmt.Fprintf(ins.opts.Out, "- %s (skipped: %s)\n", s.name, s.skip)
			if err := journal.StepSkipped(i, s.skip); err != nil {
				return journal, err
			}
			continue
		}

		fmt.Fprintf(ins.opts.Out, "%s...\n", s.name)
		if err := journal.StepStarted(i); err != nil {
			return journal, err
		}

		detail, stepErr := s.run(ctx)
		if stepErr != nil {
			if jerr := journal.StepFailed(i, stepErr); jerr != nil {
				return journal, jerr
			}
			if s.policy == Abort {
				return journal, fmt.Errorf("%s: %w", s.name, stepErr)
			}
			fmt.Fprintf(ins.opts.Out, "⚠  %s failed: %v (continuing)\n", s.name, stepErr)
			continue
		}

		if detail != "" {
			fmt.Fprintf(ins.opts.Out, "✓ %s\n", detail)
		} else {
			fmt.Fprintf(ins.opts.Out, "✓ %s\n", s.name)
		}
		if err := journal.StepCompleted(i, detail); err != nil {
			return journal, err
		}
	}

	if err := journal.Finish(); err != nil {
		return journal, err
	}
	if dir := ins.journalDir(); dir != "" {
		if err := PruneJournals(dir, ins.cfg.Options.JournalRetention); err != nil {
			fmt.Fprintf(ins.opts.Out, "⚠  prune journals: %v\n", err)
		}
	}

	fmt.Fprintln(ins.opts.Out, "Setup complete.")
	return journal, nil
}

// plan builds the ordered step list for this run.
func (ins *Installer) plan(supported bool) []step {
	skipUnsupported := ""
	if !supported {
		skipUnsupported = "distribution not recognized"
	}

	steps := []step{
		{
			name:   "Sync package database and upgrade system",
			policy: Abort,
			skip:   firstNonEmpty(skipUnsupported, ins.skipUpgradeReason(), ins.dryRunReason()),
			run: func(ctx context.Context) (string, error) {
				return "", ins.opts.Packages.SyncUpgrade(ctx)
			},
		},
		{
			name:   "Install packages",
			policy: Abort,
			skip:   firstNonEmpty(skipUnsupported, ins.noPackagesReason(), ins.dryRunReason()),
			run: func(ctx context.Context) (string, error) {
				if err := ins.opts.Packages.Install(ctx, ins.cfg.Packages...); err != nil {
					return "", err
				}
				return fmt.Sprintf("Installed %d packages", len(ins.cfg.Packages)), nil
			},
		},
		{
			name:   "Prepare inventory",
			policy: Abort,
			skip:   firstNonEmpty(skipUnsupported, ins.dryRunReason()),
			run:    ins.prepareInventory,
		},
	}

	if ins.opts.Repo != nil {
		steps = append(steps, step{
			name:   "Sync dotfiles",
			policy: Continue,
			skip:   ins.dryRunReason(),
			run: func(ctx context.Context) (string, error) {
				return ins.opts.Repo.Sync(ctx)
			},
		})
	}

	steps = append(steps, step{
		name:   "Run playbook",
		policy: Abort,
		skip:   ins.dryRunReason(),
		run:    ins.runPlaybook,
	})

	return steps
}

// prepareInventory ensures the inventory file and local-host declaration.
func (ins *Installer) prepareInventory(ctx context.Context) (string, error) {
	inv := ins.opts.Inventory

	if err := inv.EnsureFile(); err != nil {
		if os.IsPermission(errors.Unwrap(err)) || os.IsPermission(err) {
			return "", fmt.Errorf("%v (rerun with privileges that can write %s)", err, inv.Path())
		}
		return "", err
	}

	added, err := inv.EnsureHost(ins.cfg.Inventory.HostLine(), ins.cfg.Inventory.Group)
	if err != nil {
		return "", err
	}
	if added {
		return fmt.Sprintf("Declared %s in %s", ins.cfg.Inventory.Host, inv.Path()), nil
	}
	return fmt.Sprintf("%s already declared in %s", ins.cfg.Inventory.Host, inv.Path()), nil
}

// runPlaybook hands off to the playbook runner and waits for it.
func (ins *Installer) runPlaybook(ctx context.Context) (string, error) {
	playbook, err := config.ExpandHome(ins.cfg.Playbook.Path)
	if err != nil {
		return "", err
	}

	err = ins.opts.Playbooks.Run(ctx, ansible.RunOptions{
		Playbook:      playbook,
		AskBecomePass: ins.cfg.Playbook.AskBecomePass,
		Inventory:     ins.opts.Inventory.Path(),
	})
	if err != nil {
		return "", err
	}
	return "Playbook finished", nil
}

func (ins *Installer) journalDir() string {
	if ins.opts.DryRun {
		return ""
	}
	return ins.opts.JournalDir
}

func (ins *Installer) dryRunReason() string {
	if ins.opts.DryRun {
		return "dry run"
	}
	return ""
}

func (ins *Installer) skipUpgradeReason() string {
	if ins.cfg.Options.SkipUpgrade {
		return "skip_upgrade set"
	}
	return ""
}

func (ins *Installer) noPackagesReason() string {
	if len(ins.cfg.Packages) == 0 {
		return "no packages configured"
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
