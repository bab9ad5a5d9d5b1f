package version

import "fmt"

const ServiceName = "sprouthub"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func GetVersion() string {
	return Version
}

func GetBuildInfo() (string, string, string) {
	return Version, GitCommit, BuildDate
}

func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", ServiceName, Version, GitCommit, BuildDate)
}
