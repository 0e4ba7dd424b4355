package meta

import "strings"

// Blacklist filters out tool names and variant identifiers known to be
// unpublished or withdrawn (preview and early-access builds, retired
// product lines).
type Blacklist struct {
	Prefixes []string
	Suffixes []string
}

// DefaultBlacklist matches the variants the upstream archive still lists but
// no longer serves.
func DefaultBlacklist() Blacklist {
	return Blacklist{
		Prefixes: []string{"tools_qt3dstudio_"},
		Suffixes: []string{"_preview", "_early_access"},
	}
}

// Matches reports whether a name is blacklisted.
func (b Blacklist) Matches(name string) bool {
	for _, prefix := range b.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, suffix := range b.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
