// Package version exposes build information injected at link time.
package version

//nolint:gochecknoglobals // Set via -ldflags during the build.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Short returns only the version number.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}
