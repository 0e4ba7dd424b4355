// Package schema evaluates declarative URL-templating schemas: a template,
// a set of positional argument names, allowed argument values, and recursive
// conversion rules that translate one variable's value into another by exact
// match or version-range match.
package schema

import (
	"fmt"
	"iter"
	"maps"
	"regexp"
	"strings"

	"github.com/clean-dependency-project/qtmeta/internal/version"
)

// The version variable and the variables derived from it.
const (
	semverVar           = "semver"
	majorMinorVar       = "major_minor_semver"
	underscoredVar      = "semver_underscores"
	conversionSeparator = "-to-"
)

// defaultAllowedValues is the fixed fallback table consulted when a schema
// does not declare its own allowed values for an argument. Kept as an
// explicit constant rather than mutable shared state.
var defaultAllowedValues = map[string][]string{
	"host": {"windows", "linux", "mac"},
	"bits": {"64", "32"},
}

// Error reports an invalid schema definition or a failed evaluation.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// NotTrackedError reports a request for allowed values the schema does not
// track.
type NotTrackedError struct {
	Key string
}

func (e *NotTrackedError) Error() string {
	return fmt.Sprintf("Allowed values for the key '%s' are not tracked.", e.Key)
}

// ArityError reports a positional-argument count mismatch.
type ArityError struct {
	Want, Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of arguments: expected %d, got %d", e.Want, e.Got)
}

// Node is one level of a conversion-rule tree: either a leaf value or an
// ordered table of branches keyed by exact value or version-range
// expression. The interior one-key constraint is enforced at load time, so
// evaluation never encounters a malformed tree.
type Node struct {
	Leaf     string
	IsLeaf   bool
	Branches []Branch
}

// Branch is one match alternative of an interior node. Exactly one of Value
// and Chain is meaningful: a leaf result or a nested conversion.
type Branch struct {
	Match   string
	IsValue bool
	Value   string
	Chain   *Conversion
}

// Conversion translates the source variable's bound value into a binding
// for the target variable.
type Conversion struct {
	Source string
	Target string
	Root   Node
}

// Schema is one declarative URL rule: positional argument names, a URL
// template, per-argument allowed values, and conversion rules in their
// stored order.
type Schema struct {
	Product       string
	Variant       string
	Args          []string
	URLTemplate   string
	AllowedValues map[string][]string
	Conversions   []Conversion
}

var templateVarPattern = regexp.MustCompile(`\{(\w+)\}`)

// Evaluate binds the given variables, derives the alternate semver renderings
// when the version variable is present, applies every conversion rule in
// stored order, and substitutes all bindings into the URL template.
func (s *Schema) Evaluate(vars map[string]string) (string, error) {
	bound := maps.Clone(vars)
	if bound == nil {
		bound = map[string]string{}
	}

	if sv, ok := bound[semverVar]; ok {
		ver, err := version.Parse(sv)
		if err != nil {
			return "", &Error{Msg: fmt.Sprintf("Invalid version string: '%s'", sv)}
		}
		bound[majorMinorVar] = ver.MajorMinor()
		bound[underscoredVar] = ver.Underscored()
	}

	for i := range s.Conversions {
		target, value, err := s.Conversions[i].resolve(bound)
		if err != nil {
			return "", err
		}
		bound[target] = value
	}

	return substitute(s.URLTemplate, bound)
}

// resolve walks the conversion chain until a leaf value is produced.
func (c *Conversion) resolve(bound map[string]string) (string, string, error) {
	source, target, node := c.Source, c.Target, &c.Root
	for {
		value, ok := bound[source]
		if !ok {
			return "", "", &Error{Msg: fmt.Sprintf("Schema requires a value for '%s'", source)}
		}
		branch, err := node.match(source, value)
		if err != nil {
			return "", "", err
		}
		if branch.IsValue {
			return target, branch.Value, nil
		}
		source, target, node = branch.Chain.Source, branch.Chain.Target, &branch.Chain.Root
	}
}

// match selects the branch for a bound value. When the source variable is
// the version variable, branch keys are version-range expressions scanned in
// stored order; otherwise the key must equal the value exactly.
func (n *Node) match(source, value string) (*Branch, error) {
	if source == semverVar {
		ver, err := version.Parse(value)
		if err != nil {
			return nil, &Error{Msg: fmt.Sprintf("Schema contains no resolution for version %s", value)}
		}
		for i := range n.Branches {
			rng, err := version.ParseRange(n.Branches[i].Match)
			if err != nil {
				continue
			}
			if rng.Contains(ver) {
				return &n.Branches[i], nil
			}
		}
		return nil, &Error{Msg: fmt.Sprintf("Schema contains no resolution for version %s", value)}
	}
	for i := range n.Branches {
		if n.Branches[i].Match == value {
			return &n.Branches[i], nil
		}
	}
	return nil, &Error{Msg: fmt.Sprintf("Schema contains no resolution for %s %s", source, value)}
}

// substitute replaces every {name} placeholder. A placeholder with no bound
// variable is a caller error.
func substitute(template string, bound map[string]string) (string, error) {
	var missing string
	out := templateVarPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		name := placeholder[1 : len(placeholder)-1]
		value, ok := bound[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return placeholder
		}
		return value
	})
	if missing != "" {
		return "", &Error{Msg: fmt.Sprintf("Template contains unbound variable '%s'", missing)}
	}
	return out, nil
}

// AllowedValuesFor returns the allowed values for an argument name.
// Schema-local values take precedence over the fixed default table; a key
// absent from both is a not-tracked failure.
func (s *Schema) AllowedValuesFor(key string) ([]string, error) {
	if values, ok := s.AllowedValues[key]; ok {
		return values, nil
	}
	if values, ok := defaultAllowedValues[key]; ok {
		return values, nil
	}
	return nil, &NotTrackedError{Key: key}
}

// ExpandAll aligns positional values with the schema's declared argument
// names and lazily yields "<product>/<evaluated template>" for every
// combination. The sentinel value "all" at a position expands to every
// allowed value for that argument, with the last-declared argument varying
// fastest. The returned sequence is restartable.
func (s *Schema) ExpandAll(values []string) (iter.Seq2[string, error], error) {
	if len(values) != len(s.Args) {
		return nil, &ArityError{Want: len(s.Args), Got: len(values)}
	}

	// Resolve each position's choices up front so allowed-value failures
	// surface before iteration begins.
	choices := make([][]string, len(values))
	for i, value := range values {
		if value == "all" {
			allowed, err := s.AllowedValuesFor(s.Args[i])
			if err != nil {
				return nil, err
			}
			choices[i] = allowed
		} else {
			choices[i] = []string{value}
		}
	}

	return func(yield func(string, error) bool) {
		s.expand(map[string]string{}, choices, 0, yield)
	}, nil
}

// expand recurses position by position, threading a fresh binding map into
// each branch so no shared accumulator needs unwinding.
func (s *Schema) expand(bound map[string]string, choices [][]string, index int, yield func(string, error) bool) bool {
	if index == len(choices) {
		url, err := s.Evaluate(bound)
		if err != nil {
			return yield("", err)
		}
		return yield(s.Product+"/"+url, nil)
	}
	for _, choice := range choices[index] {
		next := maps.Clone(bound)
		next[s.Args[index]] = choice
		if !s.expand(next, choices, index+1, yield) {
			return false
		}
	}
	return true
}

// parseConversionKey splits "<source>-to-<target>".
func parseConversionKey(key string) (string, string, error) {
	if !strings.Contains(key, conversionSeparator) {
		return "", "", &Error{Msg: "Schema contains unrecognized key"}
	}
	parts := strings.SplitN(key, conversionSeparator, 2)
	return parts[0], parts[1], nil
}
