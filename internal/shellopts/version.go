package shellopts

import "golang.org/x/mod/semver"

// ReportedVersion is the bash version gosh reports, the one VersionAtLeast
// compares against. internal/shell stores VersInfo in $BASH_VERSINFO as one
// space-separated string, not an indexed array, and does not set
// $BASH_VERSION.
const ReportedVersion = "5.2.21"

// VersInfo returns the BASH_VERSINFO indexed-array contents: major, minor,
// patch, build, release status, and machine type, in bash's documented
// order.
func VersInfo() [6]string {
	return [6]string{"5", "2", "21", "1", "release", "x86_64-pc-gosh"}
}

// VersionAtLeast compares ReportedVersion against want ("5.1", "4.4", ...)
// using golang.org/x/mod/semver, for scripts or internal callers that need
// a single boolean rather than parsing BASH_VERSINFO by hand.
func VersionAtLeast(want string) bool {
	return semver.Compare("v"+ReportedVersion, normalizeVersion(want)) >= 0
}

// normalizeVersion pads a bare "N" or "N.N" version into the full
// "vN.N.N" dotted form semver.Compare requires.
func normalizeVersion(v string) string {
	if len(v) > 0 && v[0] != 'v' {
		v = "v" + v
	}
	dots := 0
	for _, r := range v {
		if r == '.' {
			dots++
		}
	}
	for ; dots < 2; dots++ {
		v += ".0"
	}
	return v
}
