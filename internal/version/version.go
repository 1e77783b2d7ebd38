// Package version carries build metadata set with -ldflags -X.
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns a one-line summary such as "lapdelta dev (unknown, built unknown)".
func String() string {
	return fmt.Sprintf("lapdelta %s (%s, built %s)", Version, GitSHA, BuildTime)
}
