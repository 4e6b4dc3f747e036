package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxVersionComponent bounds each numeric component of a version. Components
// above this value are rejected by ParseVersion.
const MaxVersionComponent = 999

// Version identifies one collection schema generation. It carries four
// ordered numeric components (major, minor, patch, enumerator generation)
// and an optional collection-name prefix used for display and storage.
// Comparison ignores the prefix.
type Version struct {
	Collection  string `json:"collection,omitempty"`
	Major       int    `json:"major"`
	Minor       int    `json:"minor"`
	Patch       int    `json:"patch"`
	Enumerators int    `json:"enumerators"`
}

// ZeroVersion is the implicit starting point for a collection that has no
// persisted version record.
var ZeroVersion = Version{}

// ParseVersion parses a version string of the form "major.minor.patch.gen",
// optionally prefixed by a collection name ("collection.1.0.0.1"). Dots in
// the collection name itself are not supported.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 4 {
		return Version{}, &InvalidVersionFormatError{Input: s, Reason: "expected 4 numeric components"}
	}

	numeric := parts[len(parts)-4:]
	prefix := parts[:len(parts)-4]
	if len(prefix) > 1 {
		return Version{}, &InvalidVersionFormatError{Input: s, Reason: "collection prefix must be a single segment"}
	}

	var components [4]int
	for i, part := range numeric {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, &InvalidVersionFormatError{Input: s, Reason: fmt.Sprintf("component '%s' is not numeric", part)}
		}
		if n < 0 || n > MaxVersionComponent {
			return Version{}, &InvalidVersionFormatError{Input: s, Reason: fmt.Sprintf("component %d out of range [0, %d]", n, MaxVersionComponent)}
		}
		components[i] = n
	}

	v := Version{
		Major:       components[0],
		Minor:       components[1],
		Patch:       components[2],
		Enumerators: components[3],
	}
	if len(prefix) == 1 {
		if prefix[0] == "" {
			return Version{}, &InvalidVersionFormatError{Input: s, Reason: "empty collection prefix"}
		}
		v.Collection = prefix[0]
	}
	return v, nil
}

// Compare orders two versions lexicographically by their four numeric
// components. The collection prefix does not participate.
func (v Version) Compare(other Version) int {
	pairs := [4][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
		{v.Enumerators, other.Enumerators},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// Equal reports whether the numeric components match.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// GreaterThan reports whether v orders after other.
func (v Version) GreaterThan(other Version) bool { return v.Compare(other) > 0 }

// SchemaIdentity returns the dictionary lookup key for this version:
// "collection.major.minor.patch". The enumerator component is not part of
// the schema identity.
func (v Version) SchemaIdentity() string {
	if v.Collection == "" {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%s.%d.%d.%d", v.Collection, v.Major, v.Minor, v.Patch)
}

// Generation returns the enumerator-generation component.
func (v Version) Generation() int { return v.Enumerators }

// String renders the four numeric components without the collection prefix.
// This is the form persisted in version records.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Enumerators)
}

// FullName renders the collection-prefixed form used for display.
func (v Version) FullName() string {
	if v.Collection == "" {
		return v.String()
	}
	return v.Collection + "." + v.String()
}
