// Package buildconfig exposes version metadata injected at link time:
//
//	go build -ldflags "-X github.com/DTSP-AI/numen-ai-sub001/internal/buildconfig.version=v0.3.0"
package buildconfig

import (
	"runtime"
	"runtime/debug"
)

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

// Commit returns the link-time commit, falling back to the VCS revision
// the toolchain stamped into the binary.
func Commit() string {
	if commit != "unknown" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return commit
}

// VersionInfo is the payload of GET /version and `cognictl version`.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    Version(),
		"commit":     Commit(),
		"go_version": runtime.Version(),
	}
}
