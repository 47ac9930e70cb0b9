// Package version carries build identification injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version.
	Version = "dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"
)

// Full returns a detailed version string with build info.
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s %s/%s)",
		Version, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
