package version

import (
	"fmt"
	"iter"
	"strings"
)

// Format modes accepted by Versions.Format.
const (
	FormatDefault = "default"
	FormatNested  = "nested"
)

// Versions is an ordered collection of versions grouped by minor version.
// Each group holds versions sharing a minor number, ascending within the
// group, and groups are ordered by ascending minor. Versions never reorders
// its input: callers must supply versions already ascending.
type Versions struct {
	groups [][]Version
}

// NewVersions builds a collection from pre-grouped, pre-sorted input. Empty
// groups are dropped.
func NewVersions(groups [][]Version) Versions {
	kept := make([][]Version, 0, len(groups))
	for _, g := range groups {
		if len(g) > 0 {
			kept = append(kept, g)
		}
	}
	return Versions{groups: kept}
}

// Single builds a collection holding one version.
func Single(v Version) Versions {
	return Versions{groups: [][]Version{{v}}}
}

// GroupByMinor buckets an ascending version sequence by minor number,
// preserving the input order.
func GroupByMinor(ascending []Version) Versions {
	var groups [][]Version
	for _, v := range ascending {
		n := len(groups)
		if n > 0 && groups[n-1][0].Minor() == v.Minor() && groups[n-1][0].Major() == v.Major() {
			groups[n-1] = append(groups[n-1], v)
		} else {
			groups = append(groups, []Version{v})
		}
	}
	return Versions{groups: groups}
}

// Flattened returns all versions as a single ascending slice.
func (vs Versions) Flattened() []Version {
	var flat []Version
	for _, g := range vs.groups {
		flat = append(flat, g...)
	}
	return flat
}

// Iterate returns a fresh, restartable iterator over the individual
// versions. Group boundaries are invisible to the iterator.
func (vs Versions) Iterate() iter.Seq[Version] {
	return func(yield func(Version) bool) {
		for _, g := range vs.groups {
			for _, v := range g {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Groups returns the underlying minor-version groups.
func (vs Versions) Groups() [][]Version {
	return vs.groups
}

// Latest returns the last version of the last group, or nil if empty.
func (vs Versions) Latest() *Version {
	if len(vs.groups) == 0 {
		return nil
	}
	last := vs.groups[len(vs.groups)-1]
	v := last[len(last)-1]
	return &v
}

// IsEmpty reports whether the collection holds no versions.
func (vs Versions) IsEmpty() bool { return len(vs.groups) == 0 }

// String renders one minor-version group per line, space-separated within a
// group.
func (vs Versions) String() string {
	lines := make([]string, 0, len(vs.groups))
	for _, g := range vs.groups {
		parts := make([]string, 0, len(g))
		for _, v := range g {
			parts = append(parts, v.String())
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// Format renders the collection in the requested mode. FormatDefault (or "")
// is the grouped rendering of String; FormatNested reproduces the nested
// group structure. Any other mode fails with ErrUnknownFormatMode.
func (vs Versions) Format(mode string) (string, error) {
	switch mode {
	case "", FormatDefault:
		return vs.String(), nil
	case FormatNested:
		groups := make([]string, 0, len(vs.groups))
		for _, g := range vs.groups {
			parts := make([]string, 0, len(g))
			for _, v := range g {
				parts = append(parts, v.String())
			}
			groups = append(groups, "["+strings.Join(parts, ", ")+"]")
		}
		return "[" + strings.Join(groups, ", ") + "]", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormatMode, mode)
	}
}
