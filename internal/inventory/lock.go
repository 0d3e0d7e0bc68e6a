package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's
	// considered abandoned by a crashed run.
	StaleLockThreshold = 10 * time.Minute

	lockFileName = ".dotstrap-inventory.lock"
)

var (
	ErrLockExists = errors.New("inventory lock exists: another operation may be in progress")
)

// Lock is an exclusive lock guarding inventory mutations.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock attempts to acquire the inventory lock in dir.
// Uses O_CREATE|O_EXCL for atomic lock creation; a stale lock left by a
// crashed run is removed and acquisition retried once.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, lockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if isStale, _ := isLockStale(lockPath); !isStale {
			return nil, ErrLockExists
		}
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Release releases the lock. Safe to call more than once.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path != "" {
		err := os.Remove(l.path)
		l.path = ""
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}
	return nil
}

// isLockStale reports whether the lock file's recorded timestamp is
// older than StaleLockThreshold. Unreadable or malformed locks fall back
// to the file's modification time.
func isLockStale(lockPath string) (bool, error) {
	data, err := os.ReadFile(lockPath)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if ts, ok := strings.CutPrefix(line, "timestamp="); ok {
				when, err := time.Parse(time.RFC3339, strings.TrimSpace(ts))
				if err == nil {
					return time.Since(when) > StaleLockThreshold, nil
				}
			}
		}
	}

	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
