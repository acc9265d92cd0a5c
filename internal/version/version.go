package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service version.
var Version = "0.1.0"

// DevVersion is the service current development version.
var DevVersion = "0.1.0"

// GetCurrentVersion returns the version the server reports for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// GetMinorVersion extracts "major.minor" from "major.minor.patch".
func GetMinorVersion(version string) string {
	versionList := strings.Split(version, ".")
	if len(versionList) < 3 {
		return ""
	}
	return versionList[0] + "." + versionList[1]
}

// IsVersionGreaterOrEqualThan checks if the first version is greater or equal to the second one.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// IsVersionGreaterThan checks if the first version is greater than the second one.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > 0
}
