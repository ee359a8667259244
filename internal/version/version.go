// Package version carries the build metadata stamped in by the release
// build.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String is the one-line form printed by `san version` and `san --version`.
func String() string {
	return fmt.Sprintf("%s (%s) built %s, %s", Version, Commit, BuildDate, runtime.Version())
}

// UserAgent identifies san to the platform API.
func UserAgent() string {
	return fmt.Sprintf("san/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}
