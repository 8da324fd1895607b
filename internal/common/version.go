package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped with -ldflags "-X github.com/ternarybob/imunetrack/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo identifies the running binary; served by GET /version
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// CurrentBuild returns the stamped values. An unstamped commit falls back to the
// vcs.revision that "go build" embeds.
func CurrentBuild() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Build:     Build,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit != "unknown" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				info.GitCommit = setting.Value[:7]
			}
		}
	}
	return info
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build %s, commit %s, %s)", b.Version, b.Build, b.GitCommit, b.GoVersion)
}
