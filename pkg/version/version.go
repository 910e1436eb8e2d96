// Package version carries build metadata injected with -ldflags.
package version

var (
	// Version is the released version of telemetryctl.
	Version = "dev"
	// Commit is the git commit telemetryctl was built from.
	Commit = "unknown"
)
