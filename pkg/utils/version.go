package utils

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Sha       string
	Buildtime string
	GoVersion string
}

// ReadBuildInfo returns the linked-in version values. For "go install"
// builds without ldflags the module version and VCS revision recorded by
// the Go toolchain fill the gaps.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Sha:       Sha,
		Buildtime: Buildtime,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Sha == "HEAD" {
				info.Sha = s.Value
			}
		case "vcs.time":
			if info.Buildtime == "dev" {
				info.Buildtime = s.Value
			}
		}
	}
	return info
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("Version: %s\nSha: %s\nBuilt at: %s\nGo: %s\n", b.Version, b.Sha, b.Buildtime, b.GoVersion)
}
