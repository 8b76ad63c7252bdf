package versioning

import (
	"fmt"
	"regexp"
	"strconv"
)

// APIVersion is a semantic version for the query API.
type APIVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
func (v APIVersion) Compare(other APIVersion) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}

	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}

	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}

	return 0
}

var (
	V1_0_0 = APIVersion{Major: 1, Minor: 0, Patch: 0}
)

// CurrentVersion is the version served by the API routes.
var CurrentVersion = V1_0_0

// MinimumSupportedVersion is the oldest version still accepted from clients.
var MinimumSupportedVersion = V1_0_0

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a "major.minor.patch" string into an APIVersion.
func ParseVersion(versionStr string) (APIVersion, error) {
	matches := versionPattern.FindStringSubmatch(versionStr)
	if len(matches) != 4 {
		return APIVersion{}, fmt.Errorf("invalid version format: %s", versionStr)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid major version: %s", matches[1])
	}

	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid minor version: %s", matches[2])
	}

	patch, err := strconv.Atoi(matches[3])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid patch version: %s", matches[3])
	}

	return APIVersion{Major: major, Minor: minor, Patch: patch}, nil
}

// IsVersionSupported reports whether the server accepts requests at the
// given version: at least the minimum supported and not a newer major than
// the server implements.
func IsVersionSupported(version APIVersion) bool {
	return version.Compare(MinimumSupportedVersion) >= 0 &&
		version.Major <= CurrentVersion.Major
}

// GetVersionRange returns the supported version range as a string.
func GetVersionRange() string {
	return fmt.Sprintf("%s - %s", MinimumSupportedVersion.String(), CurrentVersion.String())
}
