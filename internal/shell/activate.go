package shell

import (
	"fmt"
	"strings"

	"github.com/vellumlabs/dotstrap/internal/config"
)

// HookCommand generates the rc file line that wires the shell into
// dotstrap. The line evaluates `dotstrap activate <shell>` output so the
// script itself can evolve without touching the rc file again.
func HookCommand(shell ShellType) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}

	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`eval "$(dotstrap activate %s)"`, shell), nil
	case ShellFish:
		return fmt.Sprintf("dotstrap activate %s | source", shell), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// Script generates the activation script for the given shell. The
// script is printed to stdout and evaluated by the hook line, so every
// line must be valid syntax for that shell.
func Script(shell ShellType, cfg config.Shell) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}

	var b strings.Builder

	if cfg.Aliases {
		writeAliases(&b, shell)
	}
	writeToolInit(&b, shell)
	if cfg.ZellijAutostart {
		writeZellijAutostart(&b, shell)
	}

	return b.String(), nil
}

func writeAliases(b *strings.Builder, shell ShellType) {
	aliases := [][2]string{
		{"ls", "eza"},
		{"ll", "eza -la"},
		{"tree", "eza --tree"},
		{"cat", "bat"},
	}

	for _, a := range aliases {
		switch shell {
		case ShellFish:
			fmt.Fprintf(b, "alias %s '%s'\n", a[0], a[1])
		default:
			fmt.Fprintf(b, "alias %s='%s'\n", a[0], a[1])
		}
	}
}

// writeToolInit emits the per-tool shell hooks. Each tool is guarded by
// a lookup so a missing binary degrades to a no-op instead of an error
// on every prompt.
func writeToolInit(b *strings.Builder, shell ShellType) {
	tools := []string{"zoxide init", "starship init", "mise activate"}

	for _, tool := range tools {
		bin := strings.Fields(tool)[0]
		switch shell {
		case ShellFish:
			fmt.Fprintf(b, "if type -q %s\n    %s fish | source\nend\n", bin, tool)
		default:
			fmt.Fprintf(b, "if command -v %s >/dev/null 2>&1; then\n  eval \"$(%s %s)\"\nfi\n", bin, tool, shell)
		}
	}
}

func writeZellijAutostart(b *strings.Builder, shell ShellType) {
	switch shell {
	case ShellFish:
		b.WriteString("if status is-interactive; and type -q zellij; and not set -q ZELLIJ\n    exec zellij\nend\n")
	default:
		b.WriteString("if command -v zellij >/dev/null 2>&1 && [ -z \"$ZELLIJ\" ] && [ -t 1 ]; then\n  exec zellij\nfi\n")
	}
}
