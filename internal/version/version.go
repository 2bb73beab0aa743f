package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build-time variables injected via ldflags
var (
	// Version is the semantic version, injected at build time
	Version = "dev"

	// GitCommit is the git commit hash, injected at build time
	GitCommit = "unknown"

	// BuildDate is the build date, injected at build time
	BuildDate = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

func init() {
	// When built without ldflags (go install, tests), fall back to the
	// VCS stamp the toolchain embeds.
	if GitCommit != "unknown" {
		return
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			GitCommit = s.Value
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				Version = strings.TrimSuffix(Version, "-dirty") + "-dirty"
			}
		}
	}
}

// Info returns the short version string
func Info() string {
	return Version
}

// Full returns the version with the abbreviated commit hash
func Full() string {
	info := Info()
	if GitCommit != "" && GitCommit != "unknown" {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if !strings.Contains(info, commit) {
			info += fmt.Sprintf(" (%s)", commit)
		}
	}
	return info
}

// BuildInfo returns detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetBuildInfo returns structured build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Info(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// UserAgent returns a user agent string for HTTP clients
func UserAgent() string {
	return fmt.Sprintf("pinecone/%s", Info())
}
