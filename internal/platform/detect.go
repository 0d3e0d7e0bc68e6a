package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector reads the platform from the running process: runtime
// constants for OS and architecture, gopsutil for distribution details.
type RealDetector struct{}

// NewDetector returns the host-backed Detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host platform. The unsupported-OS gate and the
// architecture check only need OS and Arch, so a distribution lookup
// failure leaves the distro fields empty rather than failing the run;
// context cancellation during the lookup is still an error.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	arch, err := normalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		OS:      runtime.GOOS,
		Arch:    arch,
		ArchRaw: runtime.GOARCH,
	}

	if runtime.GOOS == "linux" {
		if err := d.detectDistro(ctx, info); err != nil {
			return nil, err
		}
	}

	return info, nil
}

// detectDistro fills in the distribution fields when gopsutil can read
// them. Only empty-platform results are discarded.
func (d *RealDetector) detectDistro(ctx context.Context, info *Info) error {
	name, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return nil
	}

	if name = normalizePlatform(name); name != "" {
		info.Platform = name
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}
	return nil
}
