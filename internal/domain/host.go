package domain

import (
	"sort"
	"strings"
	"time"
)

// Host is the server's record of one agent's machine.
type Host struct {
	ID          string     `json:"id"`
	Alias       string     `json:"alias"`
	Attributes  []string   `json:"attributes"`
	IP          string     `json:"ip"`
	Active      bool       `json:"active"`
	LastCheckin *time.Time `json:"lastCheckin,omitempty"`
	Created     time.Time  `json:"created"`
}

// StaleAfter is how long a host may go without a check-in before its
// agent key is considered stale for new session admission.
const StaleAfter = 30 * 24 * time.Hour

// Stale reports whether the host has not checked in within StaleAfter
// of ref (normally time.Now()).
func (h *Host) Stale(ref time.Time) bool {
	if h.LastCheckin == nil {
		return false
	}
	return ref.Sub(*h.LastCheckin) > StaleAfter
}

// sortedAttributeKey joins a sorted copy of attrs with commas; duplicates
// are kept, so the comparison is a multiset one. Two attribute sets are considered equal under the
// schedule-matching invariant iff they produce the same key.
func sortedAttributeKey(attrs []string) string {
	cp := make([]string, len(attrs))
	copy(cp, attrs)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}

// MatchesAttributes reports whether the host's attribute set is an
// exact multiset match (sorted, comma-joined) of the given attributes.
func (h *Host) MatchesAttributes(attrs []string) bool {
	return sortedAttributeKey(h.Attributes) == sortedAttributeKey(attrs)
}
