package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Default paths and values. These mirror the historical installer: the
// inventory lives at the automation tool's well-known location and the
// playbook sits under the user's home directory.
const (
	DefaultInventoryPath = "/etc/ansible/hosts"
	DefaultInventoryHost = "localhost"
	DefaultConnection    = "local"
	DefaultPlaybookPath  = "~/.ansible/setup.yml"
	DefaultDotfilesRepo  = "~/.dotfiles"
	DefaultJournalRetain = 5
)

// DefaultPackages is the package set the bootstrap installs on the
// supported distribution: the automation tool plus the interactive
// shell tooling the dotfiles expect.
var DefaultPackages = []string{
	"ansible",
	"starship",
	"zoxide",
	"eza",
	"bat",
	"mise",
	"zellij",
}

// Config represents the complete dotstrap configuration.
type Config struct {
	// Metadata about the configuration
	Meta Meta `json:"meta,omitempty"`

	// Packages to install with the system package manager
	Packages []string `json:"packages,omitempty"`

	// Automation inventory settings
	Inventory Inventory `json:"inventory"`

	// Playbook invocation settings
	Playbook Playbook `json:"playbook"`

	// Dotfiles checkout settings
	Dotfiles Dotfiles `json:"dotfiles,omitempty"`

	// Interactive shell options
	Shell Shell `json:"shell,omitempty"`

	// dotstrap behavior options
	Options Options `json:"options,omitempty"`
}

// Meta contains metadata about the configuration.
type Meta struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Inventory describes the automation inventory file.
type Inventory struct {
	// Path to the inventory file
	Path string `json:"path"`

	// Host name declared for local execution
	Host string `json:"host"`

	// Connection directive for the host (e.g. "local")
	Connection string `json:"connection"`

	// Optional group the host is declared under
	Group string `json:"group,omitempty"`

	// WorldWritable opts in to the historical 0777 inventory mode.
	// The default is false (0644): a world-writable inventory lets any
	// local user rewrite hosts later executed with elevated privileges.
	WorldWritable bool `json:"world_writable,omitempty"`
}

// HostLine returns the inventory declaration line for the host.
func (inv Inventory) HostLine() string {
	conn := inv.Connection
	if conn == "" {
		conn = DefaultConnection
	}
	return fmt.Sprintf("%s ansible_connection=%s", inv.Host, conn)
}

// Playbook describes the playbook hand-off.
type Playbook struct {
	// Path to the playbook file (supports ~)
	Path string `json:"path"`

	// AskBecomePass requests the interactive privilege-elevation prompt
	AskBecomePass bool `json:"ask_become_pass"`
}

// Dotfiles describes the git checkout that owns the playbook.
type Dotfiles struct {
	// Repo is the local checkout path (supports ~). Empty disables
	// repo-aware behavior (doctor status, install --sync).
	Repo string `json:"repo,omitempty"`

	// Branch to pull when syncing
	Branch string `json:"branch,omitempty"`
}

// Shell contains interactive shell options used by `dotstrap activate`.
type Shell struct {
	// Aliases enables the opinionated alias set (eza, bat, zoxide)
	Aliases bool `json:"aliases"`

	// ZellijAutostart launches the multiplexer for interactive sessions
	ZellijAutostart bool `json:"zellij_autostart,omitempty"`
}

// Options contains dotstrap behavior options.
type Options struct {
	// JournalRetention is the number of run journals to keep
	JournalRetention int `json:"journal_retention,omitempty"`

	// SkipUpgrade skips the full package-database upgrade before install
	SkipUpgrade bool `json:"skip_upgrade,omitempty"`
}

// Default returns a Config populated with the defaults the historical
// installer hard-coded.
func Default() *Config {
	return &Config{
		Meta: Meta{
			Name:        "dotstrap environment",
			Description: "Created by dotstrap init",
		},
		Packages: append([]string(nil), DefaultPackages...),
		Inventory: Inventory{
			Path:       DefaultInventoryPath,
			Host:       DefaultInventoryHost,
			Connection: DefaultConnection,
		},
		Playbook: Playbook{
			Path:          DefaultPlaybookPath,
			AskBecomePass: true,
		},
		Dotfiles: Dotfiles{
			Repo:   DefaultDotfilesRepo,
			Branch: "main",
		},
		Shell: Shell{
			Aliases: true,
		},
		Options: Options{
			JournalRetention: DefaultJournalRetain,
		},
	}
}

// applyDefaults fills zero values with defaults after parsing, so a
// config file only has to declare what it changes.
func (c *Config) applyDefaults() {
	if c.Inventory.Path == "" {
		c.Inventory.Path = DefaultInventoryPath
	}
	if c.Inventory.Host == "" {
		c.Inventory.Host = DefaultInventoryHost
	}
	if c.Inventory.Connection == "" {
		c.Inventory.Connection = DefaultConnection
	}
	if c.Playbook.Path == "" {
		c.Playbook.Path = DefaultPlaybookPath
	}
	if c.Options.JournalRetention == 0 {
		c.Options.JournalRetention = DefaultJournalRetain
	}
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if len(c.Packages) > MaxPackageCount {
		return &ValidationError{
			Field:   "packages",
			Message: fmt.Sprintf("too many packages (%d), maximum is %d", len(c.Packages), MaxPackageCount),
		}
	}

	for i, pkg := range c.Packages {
		if err := validatePackageName(pkg); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("packages[%d]", i),
				Message: err.Error(),
			}
		}
	}

	if !filepath.IsAbs(c.Inventory.Path) {
		return &ValidationError{
			Field:   "inventory.path",
			Message: fmt.Sprintf("must be an absolute path, got %q", c.Inventory.Path),
		}
	}

	if err := validateHostName(c.Inventory.Host); err != nil {
		return &ValidationError{Field: "inventory.host", Message: err.Error()}
	}

	if c.Inventory.Group != "" {
		if err := validateHostName(c.Inventory.Group); err != nil {
			return &ValidationError{Field: "inventory.group", Message: err.Error()}
		}
	}

	if err := validateHomePath(c.Playbook.Path); err != nil {
		return &ValidationError{Field: "playbook.path", Message: err.Error()}
	}

	if c.Dotfiles.Repo != "" {
		if err := validateHomePath(c.Dotfiles.Repo); err != nil {
			return &ValidationError{Field: "dotfiles.repo", Message: err.Error()}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// packageNamePattern matches valid pacman package names.
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9@._+-]*$`)

// hostNamePattern matches inventory host and group names.
var hostNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// validatePackageName validates a package name.
func validatePackageName(pkg string) error {
	if pkg == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	if len(pkg) > MaxPackageNameLen {
		return fmt.Errorf("package name too long (%d chars, max %d)", len(pkg), MaxPackageNameLen)
	}
	if !packageNamePattern.MatchString(pkg) {
		return fmt.Errorf("invalid package name: %q", pkg)
	}
	return nil
}

// validateHostName validates an inventory host or group name.
func validateHostName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !hostNamePattern.MatchString(name) {
		return fmt.Errorf("invalid name: %q", name)
	}
	return nil
}

// validateHomePath validates a path that must be absolute or home-relative.
// Traversal segments are rejected so a config cannot point the installer
// outside the directories it claims to use.
func validateHomePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "~/") {
		return fmt.Errorf("path must be absolute or start with ~/: %s", path)
	}
	if strings.Contains(filepath.Clean(strings.TrimPrefix(path, "~/")), "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}
	return nil
}

// ExpandHome expands a leading ~/ against the current user's home
// directory. Paths without the prefix are returned unchanged.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
