// Package version exposes the build version stamped at link time.
package version

// version is set via -ldflags; see the magefile.
var version = "v0.0.0"

// Value returns the stamped build version.
func Value() string {
	return version
}
