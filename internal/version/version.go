// Package version holds clmctl's build identity: a semantic version plus
// whatever the build pipeline chooses to stamp in via -ldflags.
package version

import "github.com/fatih/color"

var semverColor = [3]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

func colorizeSemver(major, minor, patch, suffix string) string {
	s := semverColor[0].Sprint(major) + "." + semverColor[1].Sprint(minor) + "." + semverColor[2].Sprint(patch)
	if suffix != "" {
		s += "-" + suffix
	}
	return s
}

var (
	// Version is the semantic version of the CLI.
	Version = colorizeSemver("0", "1", "0", "dev")

	// GitCommit is an optional git commit hash, set via -ldflags.
	GitCommit string

	// GitMessage is an optional git commit message, set via -ldflags.
	GitMessage string

	// BuildDate is an optional build date in ISO-8601, set via -ldflags.
	BuildDate string
)
