package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the lprof CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

func versionColor(enabled bool, fg color.Attribute) *color.Color {
	c := color.New(fg, color.Bold)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Pretty returns Version with each part colored when useColor is set.
// Versions that are not major.minor.patch come back unchanged.
func Pretty(useColor bool) string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	major := versionColor(useColor, color.FgYellow)
	minor := versionColor(useColor, color.FgGreen)
	patch := versionColor(useColor, color.FgBlue)
	return major.Sprint(parts[0]) + "." + minor.Sprint(parts[1]) + "." + patch.Sprint(parts[2])
}
