package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// gopsutil reports family strings with some variation across distros;
// this table normalizes them.
var familyMap = map[string]string{
	"debian":      FamilyDebian,
	"ubuntu":      FamilyDebian,
	"rhel":        FamilyRHEL,
	"centos":      FamilyRHEL,
	"rocky":       FamilyRHEL,
	"fedora":      FamilyFedora,
	"suse":        FamilySUSE,
	"opensuse":    FamilySUSE,
	"arch":        FamilyArch,
	"archlinux":   FamilyArch,
	"manjaro":     FamilyArch,
	"endeavouros": FamilyArch,
	"alpine":      FamilyAlpine,
	"gentoo":      FamilyGentoo,
}

// kernelNames maps GOOS values to the kernel name uname -s would report.
var kernelNames = map[string]string{
	"linux":   "Linux",
	"darwin":  "Darwin",
	"windows": "Windows_NT",
	"freebsd": "FreeBSD",
	"openbsd": "OpenBSD",
	"netbsd":  "NetBSD",
	"solaris": "SunOS",
}

// normalizeArch converts GOARCH values to normalized architecture names.
// Only amd64 and arm64 are supported.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", arch)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}

// kernelName maps a GOOS value to its uname-style kernel name.
// Unknown values are passed through unchanged so diagnostics still
// name whatever the host reported.
func kernelName(goos string) string {
	if name, ok := kernelNames[goos]; ok {
		return name
	}
	return goos
}
