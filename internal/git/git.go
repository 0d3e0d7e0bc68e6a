// Package git inspects and updates the dotfiles checkout using go-git,
// with context support and proper error handling.
package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Common errors
var (
	ErrNotARepo = errors.New("not a git repository")
	ErrDirty    = errors.New("working tree has local changes")
)

// Repo is the interface for dotfiles checkout operations.
type Repo interface {
	IsRepo(ctx context.Context) (bool, error)
	HeadCommit(ctx context.Context) (string, error)
	IsDirty(ctx context.Context) (bool, error)
	Pull(ctx context.Context) error
	Sync(ctx context.Context) (string, error)
}

// Client implements Repo against a local checkout path.
type Client struct {
	path   string
	branch string // empty pulls the checkout's current branch
}

// NewClient creates a client for the checkout at path.
func NewClient(path, branch string) *Client {
	return &Client{path: path, branch: branch}
}

// Path returns the checkout path.
func (c *Client) Path() string {
	return c.path
}

// IsRepo checks if the path is a valid git repository.
// Returns (true, nil) if valid, (false, nil) if not a repo, (false, err) if corrupted.
func (c *Client) IsRepo(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	_, err := gogit.PlainOpen(c.path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open repository: %w", err)
	}
	return true, nil
}

// HeadCommit returns the commit hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := c.open()
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// IsDirty reports whether the working tree has uncommitted changes.
func (c *Client) IsDirty(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := c.open()
	if err != nil {
		return false, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("get status: %w", err)
	}
	return !status.IsClean(), nil
}

// Pull fast-forwards the checkout from origin. Refuses to pull over
// local changes; the caller decides whether that matters.
func (c *Client) Pull(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	dirty, err := c.IsDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return ErrDirty
	}

	repo, err := c.open()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	opts := &gogit.PullOptions{RemoteName: "origin"}
	if c.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.branch)
	}

	err = worktree.PullContext(ctx, opts)
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

// Sync updates the checkout before a bootstrap run and returns a
// one-line summary. A dirty tree skips the pull rather than failing:
// local edits are the normal state of a dotfiles checkout mid-change.
func (c *Client) Sync(ctx context.Context) (string, error) {
	isRepo, err := c.IsRepo(ctx)
	if err != nil {
		return "", err
	}
	if !isRepo {
		return "", fmt.Errorf("%w: %s", ErrNotARepo, c.path)
	}

	dirty, err := c.IsDirty(ctx)
	if err != nil {
		return "", err
	}
	if dirty {
		return fmt.Sprintf("Local changes in %s; pull skipped", c.path), nil
	}

	before, err := c.HeadCommit(ctx)
	if err != nil {
		return "", err
	}

	if err := c.Pull(ctx); err != nil {
		return "", err
	}

	after, err := c.HeadCommit(ctx)
	if err != nil {
		return "", err
	}
	if after == before {
		return "Dotfiles already up to date", nil
	}
	return fmt.Sprintf("Dotfiles updated to %s", shortHash(after)), nil
}

func (c *Client) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(c.path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepo, c.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
