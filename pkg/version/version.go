// Package version reports the build version of outpost binaries.
package version

// Set via -ldflags "-X github.com/carverauto/outpost/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

func GetVersion() string {
	return version
}

func GetBuildID() string {
	return buildID
}

// GetFullVersion returns the version with its build id.
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}
