package installer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vellumlabs/dotstrap/internal/ansible"
	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/inventory"
	"github.com/vellumlabs/dotstrap/internal/platform"
)

type fakeDetector struct {
	info *platform.Info
	err  error
}

func (d *fakeDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.info, d.err
}

type fakePacman struct {
	syncCalled    bool
	installCalled bool
	installed     []string
	syncErr       error
	installErr    error
}

func (p *fakePacman) Available() bool { return true }

func (p *fakePacman) SyncUpgrade(ctx context.Context) error {
	p.syncCalled = true
	return p.syncErr
}

func (p *fakePacman) Install(ctx context.Context, pkgs ...string) error {
	p.installCalled = true
	p.installed = append(p.installed, pkgs...)
	return p.installErr
}

type fakeAnsible struct {
	runCalled bool
	lastOpts  ansible.RunOptions
	runErr    error
}

func (a *fakeAnsible) Available() bool { return true }

func (a *fakeAnsible) Run(ctx context.Context, opts ansible.RunOptions) error {
	a.runCalled = true
	a.lastOpts = opts
	return a.runErr
}

type fakeRepo struct {
	called bool
	err    error
}

func (r *fakeRepo) Sync(ctx context.Context) (string, error) {
	r.called = true
	if r.err != nil {
		return "", r.err
	}
	return "Dotfiles up to date", nil
}

func linuxInfo(distro string) *platform.Info {
	info := &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64"}
	if distro != "" {
		info.Platform = distro
		info.Family = platform.FamilyArch
	}
	return info
}

// testEnv bundles the collaborators a run needs.
type testEnv struct {
	cfg     *config.Config
	pacman  *fakePacman
	ansible *fakeAnsible
	marker  platform.MarkerCheck
	inv     *inventory.Manager
	out     *bytes.Buffer
	opts    Options
}

// newTestEnv builds an environment where the distribution marker is
// present and all collaborators succeed.
func newTestEnv(t *testing.T, markerPresent bool) *testEnv {
	t.Helper()

	root := t.TempDir()
	if markerPresent {
		markerPath := filepath.Join(root, "etc", "arch-release")
		if err := os.MkdirAll(filepath.Dir(markerPath), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(markerPath, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	playbook := filepath.Join(t.TempDir(), "setup.yml")
	if err := os.WriteFile(playbook, []byte("---\n- hosts: localhost\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Playbook.Path = playbook

	env := &testEnv{
		cfg:     cfg,
		pacman:  &fakePacman{},
		ansible: &fakeAnsible{},
		marker:  platform.NewArchMarkerCheck(root),
		inv:     inventory.NewManager(filepath.Join(t.TempDir(), "hosts")),
		out:     &bytes.Buffer{},
	}
	env.opts = Options{
		Detector:  &fakeDetector{info: linuxInfo("arch")},
		Marker:    env.marker,
		Packages:  env.pacman,
		Playbooks: env.ansible,
		Inventory: env.inv,
		Out:       env.out,
	}
	return env
}

func (env *testEnv) run(t *testing.T) (*Journal, error) {
	t.Helper()
	ins, err := New(env.cfg, env.opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ins.Run(context.Background())
}

func TestRunFullFlowOnSupportedDistro(t *testing.T) {
	env := newTestEnv(t, true)

	journal, err := env.run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !env.pacman.syncCalled {
		t.Error("expected system upgrade to run")
	}
	if !env.pacman.installCalled {
		t.Error("expected package install to run")
	}
	if len(env.pacman.installed) != len(env.cfg.Packages) {
		t.Errorf("installed %d packages, want %d", len(env.pacman.installed), len(env.cfg.Packages))
	}
	if !env.ansible.runCalled {
		t.Error("expected playbook to run")
	}
	if !env.ansible.lastOpts.AskBecomePass {
		t.Error("expected --ask-become-pass by default")
	}
	if env.ansible.lastOpts.Inventory != env.inv.Path() {
		t.Errorf("playbook inventory = %q, want %q", env.ansible.lastOpts.Inventory, env.inv.Path())
	}
	if !journal.Completed {
		t.Error("journal not marked completed")
	}

	entries, err := env.inv.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Host() != "localhost" {
		t.Errorf("inventory entries = %+v, want single localhost", entries)
	}
}

func TestRunWithoutMarkerSkipsPackagesButRunsPlaybook(t *testing.T) {
	env := newTestEnv(t, false)

	journal, err := env.run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if env.pacman.syncCalled || env.pacman.installCalled {
		t.Error("package manager must not run without the distribution marker")
	}
	if !env.ansible.runCalled {
		t.Error("expected playbook to run even without the marker")
	}

	// The inventory step is gated with the package steps: without a
	// recognized distribution nothing touches /etc.
	if env.inv.Exists() {
		t.Error("inventory file must not be created without the marker")
	}

	var skipped int
	for _, s := range journal.Steps {
		if s.State == StateSkipped {
			skipped++
		}
	}
	if skipped != 3 {
		t.Errorf("skipped steps = %d, want 3", skipped)
	}
}

func TestRunUnsupportedOS(t *testing.T) {
	env := newTestEnv(t, true)
	env.opts.Detector = &fakeDetector{info: &platform.Info{OS: "darwin", Arch: "arm64"}}

	_, err := env.run(t)
	if !errors.Is(err, ErrUnsupportedOS) {
		t.Fatalf("err = %v, want ErrUnsupportedOS", err)
	}
	if !strings.Contains(err.Error(), "Darwin") {
		t.Errorf("error %q should name the kernel", err)
	}
	if env.pacman.syncCalled || env.ansible.runCalled {
		t.Error("no step may run on an unsupported OS")
	}
	if env.inv.Exists() {
		t.Error("no side effects allowed on an unsupported OS")
	}
}

func TestRunAbortsWhenUpgradeFails(t *testing.T) {
	env := newTestEnv(t, true)
	env.pacman.syncErr = errors.New("mirror unreachable")

	journal, err := env.run(t)
	if err == nil {
		t.Fatal("expected error")
	}
	if env.pacman.installCalled {
		t.Error("install must not run after a failed upgrade")
	}
	if env.ansible.runCalled {
		t.Error("playbook must not run after a failed upgrade")
	}
	if journal.Completed {
		t.Error("journal must not be marked completed")
	}
	if got := journal.Steps[0].State; got != StateFailed {
		t.Errorf("first step state = %q, want %q", got, StateFailed)
	}
}

func TestRunAbortsWhenInstallFails(t *testing.T) {
	env := newTestEnv(t, true)
	env.pacman.installErr = errors.New("target not found")

	_, err := env.run(t)
	if err == nil {
		t.Fatal("expected error")
	}
	if env.ansible.runCalled {
		t.Error("playbook must not run after a failed install")
	}
}

func TestRunContinuesWhenDotfilesSyncFails(t *testing.T) {
	env := newTestEnv(t, true)
	repo := &fakeRepo{err: errors.New("remote hung up")}
	env.opts.Repo = repo

	_, err := env.run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !repo.called {
		t.Error("expected dotfiles sync to be attempted")
	}
	if !env.ansible.runCalled {
		t.Error("playbook should still run after a dotfiles sync failure")
	}
	if !strings.Contains(env.out.String(), "continuing") {
		t.Errorf("output should note the continued failure:\n%s", env.out.String())
	}
}

func TestRunSkipUpgradeOption(t *testing.T) {
	env := newTestEnv(t, true)
	env.cfg.Options.SkipUpgrade = true

	_, err := env.run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if env.pacman.syncCalled {
		t.Error("upgrade must be skipped when skip_upgrade is set")
	}
	if !env.pacman.installCalled {
		t.Error("install should still run when only the upgrade is skipped")
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	env := newTestEnv(t, true)
	env.opts.DryRun = true
	env.opts.JournalDir = t.TempDir()

	_, err := env.run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if env.pacman.syncCalled || env.pacman.installCalled || env.ansible.runCalled {
		t.Error("dry run must not execute mutating steps")
	}
	if env.inv.Exists() {
		t.Error("dry run must not create the inventory file")
	}
	paths, err := ListJournals(env.opts.JournalDir)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(paths) != 0 {
		t.Error("dry run must not persist a journal")
	}
}

func TestRunIdempotentAcrossRuns(t *testing.T) {
	env := newTestEnv(t, true)

	if _, err := env.run(t); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := env.run(t); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	entries, err := env.inv.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("inventory entries after two runs = %d, want 1", len(entries))
	}
}

func TestRunPersistsAndPrunesJournals(t *testing.T) {
	env := newTestEnv(t, true)
	env.opts.JournalDir = t.TempDir()
	env.cfg.Options.JournalRetention = 2

	for range 4 {
		if _, err := env.run(t); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}

	paths, err := ListJournals(env.opts.JournalDir)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("journals on disk = %d, want 2", len(paths))
	}

	journal, err := LoadJournal(paths[0])
	if err != nil {
		t.Fatalf("LoadJournal failed: %v", err)
	}
	if !journal.Completed {
		t.Error("persisted journal should be completed")
	}
	if journal.Platform != "linux/arch" {
		t.Errorf("journal platform = %q, want linux/arch", journal.Platform)
	}
}

func TestNewValidation(t *testing.T) {
	env := newTestEnv(t, true)

	if _, err := New(nil, env.opts); err == nil {
		t.Error("New should reject a nil config")
	}

	opts := env.opts
	opts.Detector = nil
	if _, err := New(env.cfg, opts); err == nil {
		t.Error("New should reject a nil detector")
	}
}
