package installer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJournalLifecycle(t *testing.T) {
	dir := t.TempDir()

	j, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}
	if j.ID == "" {
		t.Error("journal should carry a run id")
	}
	if j.Path() == "" {
		t.Fatal("journal should have a file path")
	}
	if !strings.HasPrefix(filepath.Base(j.Path()), "run.") {
		t.Errorf("unexpected journal filename %q", filepath.Base(j.Path()))
	}

	i := j.AddStep("Install packages")
	if err := j.StepStarted(i); err != nil {
		t.Fatalf("StepStarted failed: %v", err)
	}
	if err := j.StepCompleted(i, "Installed 7 packages"); err != nil {
		t.Fatalf("StepCompleted failed: %v", err)
	}
	if err := j.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	loaded, err := LoadJournal(j.Path())
	if err != nil {
		t.Fatalf("LoadJournal failed: %v", err)
	}
	if loaded.ID != j.ID {
		t.Errorf("loaded id = %q, want %q", loaded.ID, j.ID)
	}
	if !loaded.Completed {
		t.Error("loaded journal should be completed")
	}
	if len(loaded.Steps) != 1 {
		t.Fatalf("loaded steps = %d, want 1", len(loaded.Steps))
	}
	if loaded.Steps[0].State != StateCompleted {
		t.Errorf("step state = %q, want %q", loaded.Steps[0].State, StateCompleted)
	}
	if loaded.Steps[0].Detail != "Installed 7 packages" {
		t.Errorf("step detail = %q", loaded.Steps[0].Detail)
	}
}

func TestJournalPersistsOnEveryTransition(t *testing.T) {
	dir := t.TempDir()

	j, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}

	i := j.AddStep("Run playbook")
	if err := j.StepStarted(i); err != nil {
		t.Fatalf("StepStarted failed: %v", err)
	}

	// An interrupted run must leave the in-progress state on disk.
	loaded, err := LoadJournal(j.Path())
	if err != nil {
		t.Fatalf("LoadJournal failed: %v", err)
	}
	if loaded.Steps[0].State != StateInProgress {
		t.Errorf("on-disk state = %q, want %q", loaded.Steps[0].State, StateInProgress)
	}
	if loaded.Completed {
		t.Error("interrupted run must not read as completed")
	}

	if err := j.StepFailed(i, errors.New("playbook exited with status 2")); err != nil {
		t.Fatalf("StepFailed failed: %v", err)
	}
	loaded, err = LoadJournal(j.Path())
	if err != nil {
		t.Fatalf("LoadJournal failed: %v", err)
	}
	if loaded.Steps[0].State != StateFailed {
		t.Errorf("on-disk state = %q, want %q", loaded.Steps[0].State, StateFailed)
	}
	if loaded.Steps[0].Error == "" {
		t.Error("failed step should record its error")
	}
}

func TestJournalWithoutPersistence(t *testing.T) {
	j, err := NewJournal("")
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}
	if j.Path() != "" {
		t.Errorf("path = %q, want empty", j.Path())
	}

	i := j.AddStep("Prepare inventory")
	if err := j.StepSkipped(i, "dry run"); err != nil {
		t.Fatalf("StepSkipped failed: %v", err)
	}
	if err := j.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
}

func TestListJournalsNewestFirst(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"run.20260301T100000Z.aaaa.json",
		"run.20260302T100000Z.bbbb.json",
		"run.20260303T100000Z.cccc.json",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ListJournals(dir)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("journals = %d, want 3", len(paths))
	}
	if filepath.Base(paths[0]) != names[2] {
		t.Errorf("newest journal = %q, want %q", filepath.Base(paths[0]), names[2])
	}
}

func TestPruneJournals(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"run.20260301T100000Z.aaaa.json",
		"run.20260302T100000Z.bbbb.json",
		"run.20260303T100000Z.cccc.json",
		"run.20260304T100000Z.dddd.json",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := PruneJournals(dir, 2); err != nil {
		t.Fatalf("PruneJournals failed: %v", err)
	}

	paths, err := ListJournals(dir)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("journals after prune = %d, want 2", len(paths))
	}
	if filepath.Base(paths[0]) != "run.20260304T100000Z.dddd.json" {
		t.Errorf("newest journal pruned: %q", filepath.Base(paths[0]))
	}

	// keep below one is clamped so the latest journal always survives.
	if err := PruneJournals(dir, 0); err != nil {
		t.Fatalf("PruneJournals failed: %v", err)
	}
	paths, err = ListJournals(dir)
	if err != nil {
		t.Fatalf("ListJournals failed: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("journals after aggressive prune = %d, want 1", len(paths))
	}
}
