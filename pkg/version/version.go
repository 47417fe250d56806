// Package version carries build-time version information, set via -ldflags.
package version

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X .../pkg/version.Version=v1.0.0 ..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
