package meta

import (
	"fmt"
	"strings"
)

// listCommand is the command spelling used in remediation messages.
const listCommand = "qtmeta list"

// SuggestedFollowUp derives remediation suggestions from the active optional
// filters. It is computed deterministically and independently of whether a
// result was actually empty; callers invoke it only on empty results.
// Suggestions appear in a fixed order: extension, minor filter, tool name,
// resolved-version filter, with duplicates removed.
func (r *Resolver) SuggestedFollowUp() []string {
	base := fmt.Sprintf("%s %s %s %s",
		listCommand, r.archiveID.Category, r.archiveID.Host, r.archiveID.Target)

	var suggestions []string
	if r.archiveID.Extension != "" {
		suggestions = append(suggestions, fmt.Sprintf(
			"Please use '%s --extensions <QT_VERSION>' to list valid extensions.", base))
	}
	if r.opts.MinorFilter != nil {
		suggestions = append(suggestions, fmt.Sprintf(
			"Please use '%s' to check that versions of %s exist with the minor version '%d'.",
			base, r.archiveID.Category, *r.opts.MinorFilter))
	}
	if r.opts.ToolName != "" || r.opts.ToolLongListing != "" {
		suggestions = append(suggestions, fmt.Sprintf(
			"Please use '%s' to check what tools are available.", base))
	}
	if r.opts.ModulesVer != "" || r.opts.ArchesVer != "" || r.opts.ExtensionsVer != "" {
		suggestions = append(suggestions, fmt.Sprintf(
			"Please use '%s' to show versions of Qt available.", base))
	}
	return dedupe(suggestions)
}

// dedupe preserves first occurrences. No input yields nil, not an empty
// slice, so callers can compare answers against absent suggestions.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FormatSuggestedFollowUp renders suggestions below a fixed-width banner.
// No suggestions renders the empty string.
func FormatSuggestedFollowUp(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 30) + "Suggested follow-up:" + strings.Repeat("=", 30) + "\n")
	for i, s := range suggestions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("* " + s)
	}
	return b.String()
}
