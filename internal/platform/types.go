// Package platform provides host platform detection for dotstrap.
//
// It identifies the operating system, architecture, and Linux distribution,
// and exposes the result both to Go callers and as a read-only table inside
// Lua configurations. Distribution detection uses gopsutil; the authoritative
// "is this the supported distribution" check is a marker-file test so it can
// be pointed at a fake root in tests.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro, EndeavourOS
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains host platform information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // "amd64", "arm64" (normalized)
	ArchRaw  string // original GOARCH value
	Platform string // distro ID (Linux only, e.g. "arch", "ubuntu")
	Family   string // canonical family (e.g. "arch", "debian")
	Version  string // distro version (Linux only)
}

// Distro contains Linux distribution information.
// Nil on non-Linux platforms.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distribution information on Linux hosts.
// Returns nil for non-Linux platforms or when distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsArchFamily returns true if the Linux distribution is Arch-based.
// This is the family dotstrap can install packages on via pacman.
func (i *Info) IsArchFamily() bool {
	return i.OS == "linux" && i.Family == FamilyArch
}

// IsDebianFamily returns true if the Linux distribution is Debian-based.
func (i *Info) IsDebianFamily() bool {
	return i.OS == "linux" && i.Family == FamilyDebian
}

// KernelName returns the uname-style kernel name for the platform,
// e.g. "Linux", "Darwin", "Windows_NT". Diagnostics use this so the
// unsupported-OS message names what the host actually reports.
func (i *Info) KernelName() string {
	return kernelName(i.OS)
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
