package build

import "fmt"

// ldFlags holds build-time information injected during compilation, e.g.:
//
//	go build -ldflags "-X featex/internal/build.buildName=featex -X featex/internal/build.buildVersion=0.1.0"
type ldFlags struct {
	Name    string // Application name
	Time    string // Build timestamp (RFC3339)
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Populated by -ldflags during compilation; "dev" defaults otherwise.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "featex",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize applies any ldflags-injected values over the defaults.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
	return nil
}

// GetBuildFlags returns the resolved build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String returns a single-line summary suitable for --version output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
