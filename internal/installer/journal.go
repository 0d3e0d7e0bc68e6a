// Package installer orchestrates the bootstrap flow: platform detection,
// conditional dependency installation, inventory preparation, and the
// playbook hand-off.
package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State represents the state of a run or of a single step.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateSkipped    State = "skipped"
)

// StepRecord is the journal entry for one step.
type StepRecord struct {
	Name       string    `json:"name"`
	State      State     `json:"state"`
	Detail     string    `json:"detail,omitempty"` // skip reason or step note
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Journal records one bootstrap run. It is persisted after every state
// transition so an interrupted run leaves evidence of how far it got.
type Journal struct {
	Version   int          `json:"version"` // schema version
	ID        string       `json:"id"`      // UUID for unique identification
	StartedAt time.Time    `json:"started_at"`
	Platform  string       `json:"platform,omitempty"` // e.g. "linux/arch"
	Steps     []StepRecord `json:"steps"`
	Completed bool         `json:"completed"`

	path string // file this journal persists to, empty disables persistence
}

// NewJournal creates a journal for a fresh run, persisted under dir.
// An empty dir disables persistence, which tests and dry runs use.
func NewJournal(dir string) (*Journal, error) {
	j := &Journal{
		Version:   1,
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
		stamp := j.StartedAt.Format("20060102T150405Z")
		j.path = filepath.Join(dir, fmt.Sprintf("run.%s.%s.json", stamp, shortID(j.ID)))
	}

	return j, nil
}

// AddStep registers a pending step and returns its index.
func (j *Journal) AddStep(name string) int {
	j.Steps = append(j.Steps, StepRecord{Name: name, State: StatePending})
	return len(j.Steps) - 1
}

// StepStarted marks a step in progress.
func (j *Journal) StepStarted(i int) error {
	j.Steps[i].State = StateInProgress
	j.Steps[i].StartedAt = time.Now().UTC()
	return j.save()
}

// StepCompleted marks a step completed.
func (j *Journal) StepCompleted(i int, detail string) error {
	j.Steps[i].State = StateCompleted
	j.Steps[i].Detail = detail
	j.Steps[i].FinishedAt = time.Now().UTC()
	return j.save()
}

// StepFailed marks a step failed with its error.
func (j *Journal) StepFailed(i int, stepErr error) error {
	j.Steps[i].State = StateFailed
	j.Steps[i].Error = stepErr.Error()
	j.Steps[i].FinishedAt = time.Now().UTC()
	return j.save()
}

// StepSkipped marks a step skipped with the reason.
func (j *Journal) StepSkipped(i int, reason string) error {
	j.Steps[i].State = StateSkipped
	j.Steps[i].Detail = reason
	return j.save()
}

// Finish marks the run completed and persists a final time.
func (j *Journal) Finish() error {
	j.Completed = true
	return j.save()
}

// Path returns the journal file path, empty when persistence is disabled.
func (j *Journal) Path() string {
	return j.path
}

// save persists the journal. Persistence failures are returned so the
// caller can decide; the run itself does not depend on the journal.
func (j *Journal) save() error {
	if j.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// LoadJournal reads a journal file.
func LoadJournal(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	j.path = path
	return &j, nil
}

// ListJournals returns journal file paths under dir, newest first.
func ListJournals(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "run.*.json"))
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// PruneJournals removes all but the newest keep journals.
func PruneJournals(dir string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	paths, err := ListJournals(dir)
	if err != nil {
		return err
	}
	for _, p := range paths[min(keep, len(paths)):] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune journal %s: %w", p, err)
		}
	}
	return nil
}

// shortID returns the first segment of a UUID, enough to keep journal
// filenames unique alongside the timestamp.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
