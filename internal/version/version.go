// Package version carries build identification, set via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version, set at build time.
	Version = "dev"

	// Commit is the git commit hash, set at build time.
	Commit = "unknown"

	// BuildTime is the build timestamp, set at build time.
	BuildTime = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("%s (%s) built %s", Version, Commit, BuildTime)
}
