// Package inventory manages the automation inventory file: the record of
// hosts the playbook runner connects to.
//
// The historical installer appended its localhost declaration
// unconditionally and chmodded the file to 0777. Both behaviors are
// redesigned here: EnsureHost only appends when no equivalent declaration
// exists, and the file mode defaults to 0644 with world-writable access
// available only as an explicit opt-in.
package inventory

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Inventory file modes. ModeWorldWritable reproduces the historical
// chmod 777; it leaves a file later consumed with elevated privileges
// writable by every local user, so it must be asked for by name.
const (
	ModeDefault       os.FileMode = 0o644
	ModeWorldWritable os.FileMode = 0o777
)

var (
	ErrHostEmpty = errors.New("host declaration cannot be empty")
	ErrNoSuch    = errors.New("no matching host declaration")
)

// Entry is a single host declaration in the inventory.
type Entry struct {
	Group string // group section the entry appears under, empty for top level
	Line  string // the raw declaration line
}

// Host returns the host name, the first whitespace-separated field.
func (e Entry) Host() string {
	fields := strings.Fields(e.Line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Manager owns read/write access to one inventory file.
type Manager struct {
	path string
	mode os.FileMode
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorldWritable opts in to the historical 0777 file mode.
func WithWorldWritable() Option {
	return func(m *Manager) { m.mode = ModeWorldWritable }
}

// NewManager creates a Manager for the inventory file at path.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		path: path,
		mode: ModeDefault,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the inventory file path.
func (m *Manager) Path() string {
	return m.path
}

// Mode returns the file mode the manager enforces.
func (m *Manager) Mode() os.FileMode {
	return m.mode
}

// Exists reports whether the inventory file exists.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureFile creates the inventory directory and file if missing, and
// enforces the configured mode. Safe to repeat: already-present
// directories and files are left alone apart from the chmod.
func (m *Manager) EnsureFile() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create inventory directory: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY, m.mode)
	if err != nil {
		return fmt.Errorf("create inventory file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close inventory file: %w", err)
	}

	// OpenFile's mode only applies on creation; enforce it on existing
	// files too so a prior world-writable inventory gets tightened.
	if err := os.Chmod(m.path, m.mode); err != nil {
		return fmt.Errorf("set inventory mode: %w", err)
	}

	return nil
}

// EnsureHost makes sure an equivalent declaration line exists, appending
// it only when absent. Returns true if the line was appended. With a
// non-empty group the line is ensured under that [group] section.
func (m *Manager) EnsureHost(line, group string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, ErrHostEmpty
	}

	lock, err := AcquireLock(filepath.Dir(m.path))
	if err != nil {
		return false, err
	}
	defer lock.Release()

	if err := m.EnsureFile(); err != nil {
		return false, err
	}

	entries, err := m.List()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Group == group && strings.Join(strings.Fields(e.Line), " ") == strings.Join(strings.Fields(line), " ") {
			return false, nil
		}
	}

	if group == "" {
		return true, m.appendLines(line)
	}
	return true, m.appendUnderGroup(line, group)
}

// List returns all host declarations, with their group context. Comments,
// blank lines, and variable sections are skipped.
func (m *Manager) List() ([]Entry, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer f.Close()

	var entries []Entry
	group := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			group = strings.Trim(line, "[]")
			continue
		}
		// Skip variable sections like [web:vars]
		if strings.Contains(group, ":") {
			continue
		}
		entries = append(entries, Entry{Group: group, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	return entries, nil
}

// RemoveHost removes all declarations for the named host. Returns
// ErrNoSuch when nothing matched. The rewrite is atomic: a temp file in
// the same directory replaces the inventory via rename.
func (m *Manager) RemoveHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return ErrHostEmpty
	}

	lock, err := AcquireLock(filepath.Dir(m.path))
	if err != nil {
		return err
	}
	defer lock.Release()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoSuch
		}
		return fmt.Errorf("read inventory: %w", err)
	}

	var kept []string
	removed := false
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == host && !strings.HasPrefix(line, "[") {
			removed = true
			continue
		}
		kept = append(kept, raw)
	}

	if !removed {
		return ErrNoSuch
	}

	return m.writeAtomic(strings.Join(kept, "\n"))
}

// appendLines appends lines at the end of the file.
func (m *Manager) appendLines(lines ...string) error {
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, m.mode)
	if err != nil {
		return fmt.Errorf("open inventory for append: %w", err)
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("append to inventory: %w", err)
		}
	}
	return nil
}

// appendUnderGroup inserts the line at the end of the named [group]
// section, creating the section if absent.
func (m *Manager) appendUnderGroup(line, group string) error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}

	header := "[" + group + "]"
	raw := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(raw) == 1 && raw[0] == "" {
		raw = nil
	}

	sectionStart := -1
	for i, l := range raw {
		if strings.TrimSpace(l) == header {
			sectionStart = i
			break
		}
	}

	if sectionStart == -1 {
		raw = append(raw, header, line)
		return m.writeAtomic(strings.Join(raw, "\n") + "\n")
	}

	// Find the end of the section: the next [header] or EOF.
	insertAt := len(raw)
	for i := sectionStart + 1; i < len(raw); i++ {
		trimmed := strings.TrimSpace(raw[i])
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			insertAt = i
			break
		}
	}

	out := make([]string, 0, len(raw)+1)
	out = append(out, raw[:insertAt]...)
	out = append(out, line)
	out = append(out, raw[insertAt:]...)
	return m.writeAtomic(strings.Join(out, "\n") + "\n")
}

// writeAtomic replaces the inventory contents via temp file + rename.
func (m *Manager) writeAtomic(content string) error {
	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".inventory-*")
	if err != nil {
		return fmt.Errorf("create temp inventory: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp inventory: %w", err)
	}
	if err := os.Chmod(tmpPath, m.mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("set temp inventory mode: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace inventory: %w", err)
	}
	return nil
}
