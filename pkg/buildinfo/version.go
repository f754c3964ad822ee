// Package buildinfo reports the taintview version.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/taintview/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/taintview/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Binaries built with `go install module@version` fall back to the module
// version and VCS data recorded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "":
			Date = s.Value
		}
	}
}

// String returns the version with commit and date when known.
func String() string {
	s := Version
	if Commit != "" {
		s += " (" + shortCommit() + ")"
	}
	if Date != "" {
		s += " built " + Date
	}
	return s
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\n", String())
}

func shortCommit() string {
	if len(Commit) > 12 {
		return Commit[:12]
	}
	return Commit
}
