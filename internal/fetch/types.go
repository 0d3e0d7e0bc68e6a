package fetch

import "time"

// Tool is a binary fetched directly from its release page. This is the
// fallback installation path for hosts without a supported package
// manager.
type Tool string

const (
	ToolMise     Tool = "mise"
	ToolStarship Tool = "starship"
)

// String returns the string representation of the tool.
func (t Tool) String() string {
	return string(t)
}

// DefaultVersions pins the release fetched for each tool. Pinned rather
// than latest so a run is reproducible.
var DefaultVersions = map[Tool]string{
	ToolMise:     "2025.7.1",
	ToolStarship: "1.23.0",
}

// VerificationMethod indicates how a download was verified.
type VerificationMethod int

const (
	VerificationNone VerificationMethod = iota
	VerificationGPG
	VerificationSHA256
)

// String returns the string representation of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// DownloadInfo contains the release URLs for one tool version on one
// platform.
type DownloadInfo struct {
	Tool         Tool
	Version      string
	OS           string // "linux", "darwin"
	Arch         string // "amd64", "arm64"
	URL          string // archive URL
	SignatureURL string // GPG signature URL (empty when the tool has none)
	ChecksumURL  string // SHA256 checksum URL (empty when the tool has none)
}

// FetchResult describes a completed fetch.
type FetchResult struct {
	Tool     Tool
	Version  string
	Path     string // installed binary path
	Verified VerificationMethod
	Elapsed  time.Duration
}
