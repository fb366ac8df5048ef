// Package semver models semantic versions and the constraints manifests
// place on them.
//
// Versions are parsed from repository tags. A tag may carry an arbitrary
// non-numeric prefix ("v1.2.3", "release-1.2.3") which is stripped before
// parsing; the original tag is retained so a resolved version can be pinned
// back to the exact tag it came from.
package semver

import (
	"sort"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/ballast-sh/ballast/pkg/errors"
)

// Version is an immutable semantic version together with the repository tag
// it was parsed from. The zero value is not a valid version; use Parse or
// MustParse.
type Version struct {
	v   *masterminds.Version
	tag string
}

// Parse parses a repository tag into a Version. An optional leading
// non-numeric prefix is stripped, then the remainder must be exactly three
// dot-separated integers. Tags that are not semver-shaped (missing or
// non-numeric components, pre-release or build suffixes) fail with an
// INVALID_VERSION error.
func Parse(tag string) (Version, error) {
	start := strings.IndexAny(tag, "0123456789")
	if start < 0 {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "not a semantic version: %q", tag)
	}
	v, err := masterminds.StrictNewVersion(tag[start:])
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "not a semantic version: %q", tag)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "not a release version: %q", tag)
	}
	return Version{v: v, tag: tag}, nil
}

// MustParse parses a tag and panics on failure. Intended for tests and
// compile-time-constant versions.
func MustParse(tag string) Version {
	v, err := Parse(tag)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.v.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.v.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.v.Patch() }

// Tag returns the original repository tag this version was parsed from.
// This is the value written to the lock file.
func (v Version) Tag() string { return v.tag }

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string { return v.v.String() }

// Compare orders versions by (major, minor, patch). It returns a negative
// number when v is older than other, zero when equal, positive when newer.
// The tag prefix does not participate in ordering.
func (v Version) Compare(other Version) int {
	return v.v.Compare(other.v)
}

// Equal reports whether two versions denote the same (major, minor, patch)
// triple, regardless of tag spelling.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// SortDescending sorts versions in place from newest to oldest.
// The resolver tries candidates in this order.
func SortDescending(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
}
