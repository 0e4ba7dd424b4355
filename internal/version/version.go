// Package version provides the semantic version value type used to identify
// Qt releases, range predicates over versions, and the minor-grouped version
// collections rendered by the list commands.
package version

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors for version parsing and rendering.
var (
	ErrInvalidFormat     = errors.New("invalid version format: expected major.minor.patch")
	ErrUnknownFormatMode = errors.New("unknown format mode")
)

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Input string
	Cause error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Input, e.Cause)
}

func (e ParseError) Unwrap() error {
	return e.Cause
}

func (e ParseError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// Version is an immutable semantic version. The zero value is not a valid
// version; obtain instances through Parse or MustParse.
type Version struct {
	sv *semver.Version
}

// Parse parses a strict major.minor.patch version string, with optional
// prerelease and build metadata. Partial versions such as "5.12" are
// rejected.
func Parse(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, ParseError{Input: s, Cause: err}
	}
	return Version{sv: sv}, nil
}

// MustParse parses a version string and panics on failure. Intended for
// constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major version number.
func (v Version) Major() uint64 { return v.sv.Major() }

// Minor returns the minor version number.
func (v Version) Minor() uint64 { return v.sv.Minor() }

// Patch returns the patch version number.
func (v Version) Patch() uint64 { return v.sv.Patch() }

// Prerelease returns the prerelease component, or "".
func (v Version) Prerelease() string { return v.sv.Prerelease() }

func (v Version) String() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.String()
}

// Compare returns -1, 0, or 1 ordering v against o. Prerelease versions sort
// before the release with the same numeric tuple.
func (v Version) Compare(o Version) int { return v.sv.Compare(o.sv) }

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// GreaterThan reports whether v sorts after o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// Equal reports structural equality.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// MajorMinor renders the version as "<major>.<minor>".
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.sv.Major(), v.sv.Minor())
}

// Underscored renders the version as "<major>_<minor>_<patch>".
func (v Version) Underscored() string {
	return fmt.Sprintf("%d_%d_%d", v.sv.Major(), v.sv.Minor(), v.sv.Patch())
}

// core returns the numeric tuple with prerelease and build metadata removed,
// for range membership tests.
func (v Version) core() *semver.Version {
	return semver.New(v.sv.Major(), v.sv.Minor(), v.sv.Patch(), "", "")
}
