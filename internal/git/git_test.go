package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initRepo creates a repository with one commit and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	commitFile(t, repo, dir, "setup.yml", "---\n- hosts: localhost\n", "initial commit")
	return dir
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("stage %s: %v", name, err)
	}
	_, err = worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// cloneRepo clones src into a fresh directory and returns its path.
func cloneRepo(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()

	_, err := gogit.PlainClone(dir, false, &gogit.CloneOptions{URL: src})
	if err != nil {
		t.Fatalf("clone repo: %v", err)
	}
	return dir
}

func TestIsRepo(t *testing.T) {
	ctx := context.Background()

	repoDir := initRepo(t)
	ok, err := NewClient(repoDir, "").IsRepo(ctx)
	if err != nil {
		t.Fatalf("IsRepo failed: %v", err)
	}
	if !ok {
		t.Error("IsRepo() = false for a valid repository")
	}

	ok, err = NewClient(t.TempDir(), "").IsRepo(ctx)
	if err != nil {
		t.Fatalf("IsRepo failed: %v", err)
	}
	if ok {
		t.Error("IsRepo() = true for a plain directory")
	}
}

func TestHeadCommit(t *testing.T) {
	ctx := context.Background()
	client := NewClient(initRepo(t), "")

	hash, err := client.HeadCommit(ctx)
	if err != nil {
		t.Fatalf("HeadCommit failed: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("HeadCommit() = %q, want a full hash", hash)
	}
}

func TestHeadCommitNotARepo(t *testing.T) {
	_, err := NewClient(t.TempDir(), "").HeadCommit(context.Background())
	if !errors.Is(err, ErrNotARepo) {
		t.Errorf("err = %v, want ErrNotARepo", err)
	}
}

func TestIsDirty(t *testing.T) {
	ctx := context.Background()
	dir := initRepo(t)
	client := NewClient(dir, "")

	dirty, err := client.IsDirty(ctx)
	if err != nil {
		t.Fatalf("IsDirty failed: %v", err)
	}
	if dirty {
		t.Error("fresh checkout should be clean")
	}

	if err := os.WriteFile(filepath.Join(dir, "setup.yml"), []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirty, err = client.IsDirty(ctx)
	if err != nil {
		t.Fatalf("IsDirty failed: %v", err)
	}
	if !dirty {
		t.Error("modified checkout should be dirty")
	}
}

func TestPullRefusesDirtyTree(t *testing.T) {
	src := initRepo(t)
	clone := cloneRepo(t, src)

	if err := os.WriteFile(filepath.Join(clone, "setup.yml"), []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewClient(clone, "").Pull(context.Background())
	if !errors.Is(err, ErrDirty) {
		t.Errorf("err = %v, want ErrDirty", err)
	}
}

func TestSyncUpToDate(t *testing.T) {
	src := initRepo(t)
	clone := cloneRepo(t, src)

	summary, err := NewClient(clone, "").Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if summary != "Dotfiles already up to date" {
		t.Errorf("summary = %q", summary)
	}
}

func TestSyncPullsNewCommits(t *testing.T) {
	ctx := context.Background()
	src := initRepo(t)
	clone := cloneRepo(t, src)

	srcRepo, err := gogit.PlainOpen(src)
	if err != nil {
		t.Fatal(err)
	}
	commitFile(t, srcRepo, src, "vars.yml", "editor: vim\n", "add vars")

	client := NewClient(clone, "")
	before, err := client.HeadCommit(ctx)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := client.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !strings.HasPrefix(summary, "Dotfiles updated to ") {
		t.Errorf("summary = %q", summary)
	}

	after, err := client.HeadCommit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after == before {
		t.Error("HEAD unchanged after sync")
	}
	if _, err := os.Stat(filepath.Join(clone, "vars.yml")); err != nil {
		t.Errorf("pulled file missing: %v", err)
	}
}

func TestSyncSkipsDirtyTree(t *testing.T) {
	src := initRepo(t)
	clone := cloneRepo(t, src)

	if err := os.WriteFile(filepath.Join(clone, "setup.yml"), []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := NewClient(clone, "").Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !strings.Contains(summary, "pull skipped") {
		t.Errorf("summary = %q, want pull skipped", summary)
	}
}

func TestSyncNotARepo(t *testing.T) {
	_, err := NewClient(t.TempDir(), "").Sync(context.Background())
	if !errors.Is(err, ErrNotARepo) {
		t.Errorf("err = %v, want ErrNotARepo", err)
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(initRepo(t), "")
	if _, err := client.HeadCommit(ctx); err == nil {
		t.Error("HeadCommit should fail on a cancelled context")
	}
	if err := client.Pull(ctx); err == nil {
		t.Error("Pull should fail on a cancelled context")
	}
}
