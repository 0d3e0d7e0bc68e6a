package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RCFilePath returns the path to the shell's rc file.
func RCFilePath(shell ShellType) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	switch shell {
	case ShellBash:
		return filepath.Join(homeDir, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(homeDir, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(homeDir, ".config", "fish", "config.fish"), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// HasHookLine checks if the rc file already contains a dotstrap hook.
func HasHookLine(rcPath string) (bool, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to open file", Cause: err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, HookMarker) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	return false, nil
}

// BackupRCFile copies the rc file aside before modification.
func BackupRCFile(rcPath string) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		return "", &RCFileError{Path: rcPath, Message: "failed to read file for backup", Cause: err}
	}

	backupPath := rcPath + BackupSuffix
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", &RCFileError{Path: backupPath, Message: "failed to write backup file", Cause: err}
	}
	return backupPath, nil
}

// AddHookLine appends the hook command to the rc file via an atomic
// temp-file rename, creating the file and its parent directory if
// needed.
func AddHookLine(rcPath, hookCommand string) error {
	dir := filepath.Dir(rcPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}

	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return &RCFileError{Path: rcPath, Message: "failed to read existing file", Cause: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".dotstrap-tmp-*")
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("\n# Added by dotstrap\n")
	b.WriteString(hookCommand)
	b.WriteByte('\n')

	if _, err := tmpFile.WriteString(b.String()); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to write temporary file", Cause: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to close temporary file", Cause: err}
	}

	if err := os.Rename(tmpPath, rcPath); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to replace file", Cause: err}
	}
	return nil
}

// Setup wires the hook line into the rc file for the given shell. The
// operation is idempotent: an existing hook line short-circuits unless
// Force is set.
func Setup(shell ShellType, opts SetupOptions) (*SetupResult, error) {
	if err := ValidateShell(shell); err != nil {
		return nil, err
	}

	rcPath, err := RCFilePath(shell)
	if err != nil {
		return nil, err
	}

	hook, err := HookCommand(shell)
	if err != nil {
		return nil, err
	}

	result := &SetupResult{
		Shell:       shell,
		RCFile:      rcPath,
		HookCommand: hook,
	}

	if !opts.Force {
		present, err := HasHookLine(rcPath)
		if err != nil {
			return nil, err
		}
		if present {
			result.AlreadyPresent = true
			return result, nil
		}
	}

	if opts.DryRun {
		result.Added = true
		return result, nil
	}

	if opts.Backup {
		if _, err := os.Stat(rcPath); err == nil {
			backupPath, err := BackupRCFile(rcPath)
			if err != nil {
				return nil, err
			}
			result.BackupPath = backupPath
		}
	}

	if err := AddHookLine(rcPath, hook); err != nil {
		return nil, err
	}
	result.Added = true
	return result, nil
}
