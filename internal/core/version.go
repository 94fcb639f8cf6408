package core

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"
)

// VersionLayout formats the build timestamp used as package version.
const VersionLayout = "20060102150405"

// BuildVersion returns the package version for a build started at now.
func BuildVersion(now time.Time) string {
	return now.UTC().Format(VersionLayout)
}

// ParseBuildVersion checks that version is a timestamp version and a
// valid Debian version.
func ParseBuildVersion(version string) (time.Time, error) {
	stamp, err := time.Parse(VersionLayout, version)
	if err != nil {
		return time.Time{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid build version %q", version)).
			WithCause(err)
	}
	if _, err := debversion.NewVersion(version); err != nil {
		return time.Time{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("build version %q is not a valid Debian version", version)).
			WithCause(err)
	}
	return stamp, nil
}
