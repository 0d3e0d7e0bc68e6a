// Package pacman wraps the pacman package manager for the bootstrap
// install step.
//
// All mutating operations run through sudo because package-database and
// package mutations need elevated privileges; pacman's own output and the
// sudo password prompt pass straight through to the terminal.
package pacman

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Package manager errors
var (
	ErrNotAvailable  = errors.New("pacman is not available on this system")
	ErrSyncFailed    = errors.New("package database sync failed")
	ErrInstallFailed = errors.New("package installation failed")
	ErrNoPackages    = errors.New("no packages specified")
)

// PackageManager is the interface for package manager operations.
type PackageManager interface {
	// Available reports whether the package manager binary can be found.
	Available() bool

	// SyncUpgrade refreshes the package database and upgrades the system
	// (pacman -Syu).
	SyncUpgrade(ctx context.Context) error

	// Install installs the given packages (pacman -S --needed).
	Install(ctx context.Context, pkgs ...string) error
}

// Client implements PackageManager by invoking pacman through sudo.
type Client struct {
	bin    string // pacman binary name or path
	sudo   string // privilege elevation command, empty to run directly
	runner Runner
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the command runner. Tests use this to record
// invocations instead of executing them.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithoutSudo runs pacman directly, for hosts where the caller is
// already root.
func WithoutSudo() Option {
	return func(c *Client) { c.sudo = "" }
}

// NewClient creates a pacman client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		bin:    "pacman",
		sudo:   "sudo",
		runner: NewExecRunner(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether pacman can be found on PATH.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.bin)
	return err == nil
}

// SyncUpgrade performs a full package-database sync and system upgrade.
// Equivalent to the historical `sudo pacman -Syu`; --noconfirm keeps the
// run non-interactive apart from the sudo prompt itself.
func (c *Client) SyncUpgrade(ctx context.Context) error {
	if err := c.run(ctx, "-Syu", "--noconfirm"); err != nil {
		return fmt.Errorf("%w: %s", ErrSyncFailed, redactExitDetail(err))
	}
	return nil
}

// Install installs the given packages. --needed skips packages that are
// already up to date, which keeps repeated bootstrap runs cheap.
func (c *Client) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return ErrNoPackages
	}

	args := append([]string{"-S", "--noconfirm", "--needed"}, pkgs...)
	if err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: %s", ErrInstallFailed, redactExitDetail(err))
	}
	return nil
}

// run executes pacman with the configured elevation prefix.
func (c *Client) run(ctx context.Context, args ...string) error {
	name := c.bin
	if c.sudo != "" {
		args = append([]string{c.bin}, args...)
		name = c.sudo
	}
	return c.runner.Run(ctx, name, args...)
}

// redactExitDetail keeps error chains short: pacman already printed its
// own diagnostics to the terminal, so only the exit condition matters here.
func redactExitDetail(err error) string {
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("exit status %d", exitErr.ExitCode())
	}
	return err.Error()
}
