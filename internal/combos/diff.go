package combos

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Difference is one discrepancy between two combination documents.
type Difference struct {
	Section string // "qt", "tools", "modules", "versions"
	Missing bool   // true: present in expected, absent in actual
	Detail  string
}

func (d Difference) String() string {
	verb := "added"
	if d.Missing {
		verb = "missing"
	}
	return fmt.Sprintf("%s: %s %s", d.Section, verb, d.Detail)
}

// Compare diffs an actual document against an expected one and returns every
// discrepancy. An empty result means the documents are equivalent.
func Compare(actual, expected *Document) []Difference {
	var diffs []Difference
	diffs = append(diffs, diffRecords("qt", actual.Qt, expected.Qt)...)
	diffs = append(diffs, diffRecords("tools", actual.Tools, expected.Tools)...)
	diffs = append(diffs, diffModules(actual.Modules, expected.Modules)...)
	diffs = append(diffs, diffStrings("versions", actual.Versions, expected.Versions)...)
	return diffs
}

func diffRecords(section string, actual, expected []Record) []Difference {
	have := make(map[Record]bool, len(actual))
	for _, r := range actual {
		have[r] = true
	}
	want := make(map[Record]bool, len(expected))
	for _, r := range expected {
		want[r] = true
	}

	var diffs []Difference
	for _, r := range expected {
		if !have[r] {
			diffs = append(diffs, Difference{Section: section, Missing: true, Detail: recordDetail(r)})
		}
	}
	for _, r := range actual {
		if !want[r] {
			diffs = append(diffs, Difference{Section: section, Detail: recordDetail(r)})
		}
	}
	return diffs
}

func recordDetail(r Record) string {
	if r.ToolName != "" {
		return fmt.Sprintf("%s/%s %s %s", r.OSName, r.Target, r.ToolName, r.Arch)
	}
	return fmt.Sprintf("%s/%s %s", r.OSName, r.Target, r.Arch)
}

func diffModules(actual, expected []ModuleGroup) []Difference {
	byVersion := func(groups []ModuleGroup) map[string][]string {
		m := make(map[string][]string, len(groups))
		for _, g := range groups {
			m[g.QtVersion] = g.Modules
		}
		return m
	}
	have := byVersion(actual)
	want := byVersion(expected)

	keys := make(map[string]bool, len(have)+len(want))
	for k := range have {
		keys[k] = true
	}
	for k := range want {
		keys[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var diffs []Difference
	for _, key := range ordered {
		haveMods, inActual := have[key]
		wantMods, inExpected := want[key]
		switch {
		case !inActual:
			diffs = append(diffs, Difference{Section: "modules", Missing: true, Detail: key})
		case !inExpected:
			diffs = append(diffs, Difference{Section: "modules", Detail: key})
		default:
			for _, d := range diffStrings("modules", haveMods, wantMods) {
				d.Detail = key + " " + d.Detail
				diffs = append(diffs, d)
			}
		}
	}
	return diffs
}

func diffStrings(section string, actual, expected []string) []Difference {
	have := make(map[string]bool, len(actual))
	for _, s := range actual {
		have[s] = true
	}
	want := make(map[string]bool, len(expected))
	for _, s := range expected {
		want[s] = true
	}

	var diffs []Difference
	for _, s := range expected {
		if !have[s] {
			diffs = append(diffs, Difference{Section: section, Missing: true, Detail: s})
		}
	}
	for _, s := range actual {
		if !want[s] {
			diffs = append(diffs, Difference{Section: section, Detail: s})
		}
	}
	return diffs
}

// MarshalDocument renders a document as indented JSON with a trailing
// newline, the format the checked-in combinations file uses.
func MarshalDocument(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal combinations: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalDocument parses a checked-in combinations file.
func UnmarshalDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse combinations: %w", err)
	}
	return &doc, nil
}
