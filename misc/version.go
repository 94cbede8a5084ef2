// Package misc keeps build time information.
package misc

// set by linker
var (
	version = "dev"
	githash = "unknown"
)

func GetAppName() string {
	return "inlinebar"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return githash
}
