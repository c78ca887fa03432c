// Package version exposes build information injected at link time.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rshade/carbonledger/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // ldflags targets
var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the release version, falling back to the module
// version recorded by "go install" for untagged builds.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// GetGitCommit returns the commit the binary was built from, if known.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp, if known.
func GetBuildDate() string {
	return buildDate
}

// String describes the build on one line.
func String() string {
	s := GetVersion()
	if gitCommit != "" {
		s += fmt.Sprintf(" (commit %s", gitCommit)
		if buildDate != "" {
			s += ", built " + buildDate
		}
		s += ")"
	}
	return s
}
