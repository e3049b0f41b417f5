// Package buildinfo exposes the version haview was built from.
//
// Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/haview/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/haview/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/haview/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped binaries fall back to what the Go toolchain recorded.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const unset = "dev"

var (
	Version = unset
	Commit  = ""
	Date    = ""
)

// Resolved returns Version, or the module version recorded by "go install"
// for unstamped builds.
func Resolved() string {
	if Version != unset {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// vcs returns Commit and Date, filling blanks from the VCS settings that
// "go build" embeds.
func vcs() (commit, date string) {
	commit, date = Commit, Date
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && date == "":
				date = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return commit, date
}

// Template is the cobra version template.
func Template() string {
	commit, date := vcs()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Resolved(), commit, date)
}

// UserAgent is sent with every API request.
func UserAgent() string { return "haview/" + Resolved() }
