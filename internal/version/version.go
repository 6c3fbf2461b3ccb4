// Package version reports build information for partnersync.
//
// Set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/partner-reports/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/partner-reports/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/partnersync
package version

import "runtime"

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build information logged at startup and printed by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a formatted version string.
func String() string {
	return "partnersync " + Version + " (" + Commit + ") built " + BuildTime
}

// LogAttrs returns the build information as slog key/value pairs.
func LogAttrs() []any {
	return []any{"version", Version, "commit", Commit, "go", runtime.Version()}
}
