package shell

import (
	"os"
	"path/filepath"
	"strings"
)

// DetectShell detects the user's shell from the $SHELL environment
// variable. Returns ShellUnknown when the variable is unset or names a
// shell that is not supported.
func DetectShell() ShellType {
	if shell := os.Getenv("SHELL"); shell != "" {
		if st := parseShellFromPath(shell); st.IsValid() {
			return st
		}
	}
	return ShellUnknown
}

// parseShellFromPath extracts the shell type from a shell binary path,
// e.g. /usr/bin/zsh -> zsh.
func parseShellFromPath(shellPath string) ShellType {
	switch strings.ToLower(filepath.Base(shellPath)) {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// ValidateShell validates that a shell type is supported.
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}

// SupportedShells returns the list of supported shells.
func SupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}
