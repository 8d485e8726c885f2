// Package versions holds build information injected with -ldflags.
package versions

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	-ldflags "-X github.com/stacklok/issue-auditor/internal/versions.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the build information of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info on one line for the version command
func (v VersionInfo) String() string {
	return fmt.Sprintf("issue-auditor %s (commit %s, built %s, %s, %s)",
		v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}
