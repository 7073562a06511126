// Package safety restricts and records what MCP callers do with the Harmonic
// account behind the server.
package safety

import (
	"path/filepath"
	"strings"
)

// SavedSearchURNPrefix prefixes the numeric ID in a saved search URN.
const SavedSearchURNPrefix = "urn:harmonic:saved_search:"

// Filter decides which saved searches MCP callers may run. Patterns use
// filepath.Match syntax. Each search is matched in both its bare ID and URN
// forms, so "149709" and "urn:harmonic:saved_search:149709" are the same
// search to every pattern.
//
// The denylist is checked first. With an empty allowlist every search that is
// not denied is allowed; otherwise the ID must match an allowlist pattern.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter. Either list may be nil.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether the saved search id is permitted. A nil Filter
// allows everything.
func (f *Filter) IsAllowed(id string) bool {
	if f == nil {
		return true
	}
	forms := searchForms(id)
	if matchAny(f.denylist, forms) {
		return false
	}
	if len(f.allowlist) == 0 {
		return true
	}
	return matchAny(f.allowlist, forms)
}

// searchForms returns id as a bare ID and as a URN.
func searchForms(id string) []string {
	id = strings.TrimSpace(id)
	if len(id) >= len(SavedSearchURNPrefix) && strings.EqualFold(id[:len(SavedSearchURNPrefix)], SavedSearchURNPrefix) {
		bare := id[len(SavedSearchURNPrefix):]
		return []string{bare, SavedSearchURNPrefix + bare}
	}
	return []string{id, SavedSearchURNPrefix + id}
}

func matchAny(patterns, names []string) bool {
	for _, pattern := range patterns {
		for _, name := range names {
			if matchGlob(pattern, name) {
				return true
			}
		}
	}
	return false
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
