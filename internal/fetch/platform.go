package fetch

import (
	"fmt"

	"github.com/vellumlabs/dotstrap/internal/platform"
)

// buildDownloadInfo constructs release URLs for a tool on the given
// platform.
func buildDownloadInfo(tool Tool, version string, info *platform.Info) (*DownloadInfo, error) {
	if info == nil {
		return nil, fmt.Errorf("platform info is required")
	}

	d := &DownloadInfo{
		Tool:    tool,
		Version: version,
		OS:      info.OS,
		Arch:    info.Arch,
	}

	switch tool {
	case ToolMise:
		return buildMiseInfo(d)
	case ToolStarship:
		return buildStarshipInfo(d)
	default:
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}
}

// buildMiseInfo constructs mise release URLs.
// Pattern: https://github.com/jdx/mise/releases/download/v{version}/mise-v{version}-{os}-{arch}.tar.gz
func buildMiseInfo(d *DownloadInfo) (*DownloadInfo, error) {
	arch, err := miseArch(d.Arch)
	if err != nil {
		return nil, err
	}
	osName, err := releaseOS(d.OS, ToolMise)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("https://github.com/jdx/mise/releases/download/v%s", d.Version)
	asset := fmt.Sprintf("mise-v%s-%s-%s.tar.gz", d.Version, osName, arch)

	d.URL = fmt.Sprintf("%s/%s", base, asset)
	d.SignatureURL = fmt.Sprintf("%s/%s.sig", base, asset)
	return d, nil
}

// buildStarshipInfo constructs starship release URLs. Starship names
// assets by Rust target triple and publishes a per-asset .sha256 file
// instead of GPG signatures.
// Pattern: https://github.com/starship/starship/releases/download/v{version}/starship-{triple}.tar.gz
func buildStarshipInfo(d *DownloadInfo) (*DownloadInfo, error) {
	triple, err := starshipTriple(d.OS, d.Arch)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("https://github.com/starship/starship/releases/download/v%s", d.Version)
	asset := fmt.Sprintf("starship-%s.tar.gz", triple)

	d.URL = fmt.Sprintf("%s/%s", base, asset)
	d.ChecksumURL = fmt.Sprintf("%s/%s.sha256", base, asset)
	return d, nil
}

func miseArch(goarch string) (string, error) {
	switch goarch {
	case "amd64":
		return "x64", nil
	case "arm64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture for mise: %s", goarch)
	}
}

func releaseOS(goos string, tool Tool) (string, error) {
	switch goos {
	case "linux", "darwin":
		return goos, nil
	default:
		return "", fmt.Errorf("unsupported OS for %s: %s", tool, goos)
	}
}

func starshipTriple(goos, goarch string) (string, error) {
	switch goos {
	case "linux":
		switch goarch {
		case "amd64":
			return "x86_64-unknown-linux-gnu", nil
		case "arm64":
			return "aarch64-unknown-linux-musl", nil
		}
	case "darwin":
		switch goarch {
		case "amd64":
			return "x86_64-apple-darwin", nil
		case "arm64":
			return "aarch64-apple-darwin", nil
		}
	}
	return "", fmt.Errorf("unsupported platform for starship: %s/%s", goos, goarch)
}
