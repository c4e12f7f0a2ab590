package sipstat

import (
	"fmt"
	"strconv"
	"strings"
)

// parseProductVersion splits a product version string such as "10.11.6" into
// an [OSVersion] record. Only the major and minor components are kept.
func parseProductVersion(s string) (OSVersion, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return OSVersion{}, fmt.Errorf("malformed product version %q", s)
	}
	return OSVersion{Major: parts[0], Minor: parts[1]}, nil
}

// hostSupportsCSR reports whether the given OS version carries the CSR
// policy mechanism. The mechanism was introduced in OS X 10.11; the check
// requires major == "10" and minor >= 11, and denies everything else,
// including versions whose minor component does not parse. This introduction
// point is hard-coded for behavioral compatibility.
func hostSupportsCSR(v OSVersion) bool {
	if v.Major != "10" {
		return false
	}
	minor, err := strconv.Atoi(v.Minor)
	if err != nil {
		return false
	}
	return minor >= 11
}

// gateVersion applies the availability gate to a version-source result.
// Exactly one record is expected for a single running host; zero or several
// records mean the version cannot be determined, and the gate fails closed.
func gateVersion(versions []OSVersion) (OSVersion, string, bool) {
	if len(versions) != 1 {
		return OSVersion{}, "could not determine OS version", false
	}
	v := versions[0]
	if !hostSupportsCSR(v) {
		return v, "not running on OS X 10.11 or higher", false
	}
	return v, "", true
}
