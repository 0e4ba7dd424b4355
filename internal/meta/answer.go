package meta

import (
	"errors"
	"strings"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
)

// Answer is a renderable query result. Emptiness triggers remediation
// suggestions in callers; it never makes the query itself fail.
type Answer interface {
	String() string
	IsEmpty() bool
}

// Lines renders one name per line (tool names, variant identifiers).
type Lines []string

func (l Lines) String() string { return strings.Join(l, "\n") }

// IsEmpty reports whether the list holds no names.
func (l Lines) IsEmpty() bool { return len(l) == 0 }

// Words renders names space-separated on a single line (modules,
// architectures, extensions).
type Words []string

func (w Words) String() string { return strings.Join(w, " ") }

// IsEmpty reports whether the list holds no names.
func (w Words) IsEmpty() bool { return len(w) == 0 }

// AsSelectionError reports whether err wraps a SelectionError, assigning
// it to target when it does.
func AsSelectionError(err error, target **archive.SelectionError) bool {
	return errors.As(err, target)
}
