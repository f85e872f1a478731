// Package version exposes build metadata injected at link time.
package version

// Overridden via -ldflags "-X ..." by the release build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit hash and build date.
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}
