package version

var (
	// Overridden at build time via -ldflags on tagged releases
	semver   = "0.3.0"
	revision = "unknown"
)

func Get() string {
	return semver
}

func Commit() string {
	return revision
}
