package config

// Version, Commit, and Date are set at build time via -ldflags, the
// same pattern the teacher's internal/config/version.go uses.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// SetBuildFlags overrides the build-time defaults; called from main
// before the CLI parses flags.
func SetBuildFlags(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}
