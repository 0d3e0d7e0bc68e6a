// Package ansible wraps the ansible-playbook runner for the bootstrap
// hand-off.
//
// The playbook run is interactive: the become-password prompt and all task
// output go straight to the terminal, so the child process inherits stdio
// rather than having output captured.
package ansible

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Playbook runner errors
var (
	ErrNotInstalled   = errors.New("ansible-playbook is not installed")
	ErrPlaybookAbsent = errors.New("playbook file does not exist")
	ErrRunFailed      = errors.New("playbook run failed")
)

// RunOptions configures a playbook invocation.
type RunOptions struct {
	// Playbook is the path of the playbook file to run.
	Playbook string

	// AskBecomePass requests the interactive privilege-elevation prompt
	// (--ask-become-pass).
	AskBecomePass bool

	// Inventory optionally overrides the inventory file (-i). Empty uses
	// the tool's configured default.
	Inventory string
}

// Runner is the interface for playbook execution.
type Runner interface {
	Available() bool
	Run(ctx context.Context, opts RunOptions) error
}

// Client implements Runner by invoking the ansible-playbook binary.
type Client struct {
	bin  string
	exec CommandRunner
}

// CommandRunner executes external commands; tests substitute a recorder.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execRunner runs commands with stdio inherited from the caller.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Option configures a Client.
type Option func(*Client)

// WithCommandRunner replaces the command runner, for tests.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Client) { c.exec = r }
}

// NewClient creates an ansible-playbook client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		bin:  "ansible-playbook",
		exec: execRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether ansible-playbook can be found on PATH.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.bin)
	return err == nil
}

// Run invokes the playbook and waits for it to complete.
// The playbook file must exist before hand-off; a missing playbook is the
// caller's configuration problem, not something ansible should diagnose.
func (c *Client) Run(ctx context.Context, opts RunOptions) error {
	if opts.Playbook == "" {
		return fmt.Errorf("%w: no playbook path configured", ErrPlaybookAbsent)
	}
	if _, err := os.Stat(opts.Playbook); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPlaybookAbsent, opts.Playbook)
		}
		return fmt.Errorf("stat playbook: %w", err)
	}

	args := []string{}
	if opts.AskBecomePass {
		args = append(args, "--ask-become-pass")
	}
	if opts.Inventory != "" {
		args = append(args, "-i", opts.Inventory)
	}
	args = append(args, opts.Playbook)

	if err := c.exec.Run(ctx, c.bin, args...); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: cancelled", ErrRunFailed)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit status %d", ErrRunFailed, exitErr.ExitCode())
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s not found on PATH", ErrNotInstalled, c.bin)
		}
		return fmt.Errorf("%w: %v", ErrRunFailed, err)
	}

	return nil
}
