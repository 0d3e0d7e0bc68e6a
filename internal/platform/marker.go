package platform

import (
	"os"
	"path/filepath"
)

// ArchMarkerFile is the path, relative to the filesystem root, whose
// presence identifies an Arch Linux installation.
const ArchMarkerFile = "etc/arch-release"

// MarkerCheck tests for a distribution marker file under a configurable
// root. The root is injectable so tests can point it at a temp directory
// instead of the live filesystem.
type MarkerCheck struct {
	Root   string // filesystem root, "/" on a real host
	Marker string // marker path relative to Root
}

// NewArchMarkerCheck returns a MarkerCheck for the Arch Linux marker
// file under the given root.
func NewArchMarkerCheck(root string) MarkerCheck {
	return MarkerCheck{Root: root, Marker: ArchMarkerFile}
}

// Present reports whether the marker file exists. Any stat error other
// than non-existence is treated as absent: if /etc/arch-release cannot
// be read, the host cannot be confirmed as the supported distribution.
func (m MarkerCheck) Present() bool {
	info, err := os.Stat(m.Path())
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Path returns the absolute path of the marker file.
func (m MarkerCheck) Path() string {
	root := m.Root
	if root == "" {
		root = "/"
	}
	return filepath.Join(root, m.Marker)
}
