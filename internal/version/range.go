package version

import "github.com/Masterminds/semver/v3"

// Range is an immutable predicate over versions, compiled from a range
// expression such as "*", ">=4.1", "<3.5", or a bare exact version.
type Range struct {
	expr string
	c    *semver.Constraints
}

// ParseRange compiles a range expression.
func ParseRange(expr string) (Range, error) {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return Range{}, ParseError{Input: expr, Cause: err}
	}
	return Range{expr: expr, c: c}, nil
}

// MustParseRange compiles a range expression and panics on failure.
func MustParseRange(expr string) Range {
	r, err := ParseRange(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether v satisfies the range. Membership is tested on
// the numeric tuple: prerelease and build metadata are ignored, so
// "4.1.1-202105261132" satisfies ">=4.1".
func (r Range) Contains(v Version) bool {
	if r.expr == "*" {
		return true
	}
	return r.c.Check(v.core())
}

func (r Range) String() string { return r.expr }
