// Package version holds build metadata injected via ldflags:
//
//	-ldflags "-X github.com/kailas-cloud/wikiquery/internal/version.Version=v1.2.0"
package version

//nolint:revive // overwritten by the linker
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for --version output.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
