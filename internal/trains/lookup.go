package trains

import (
	"sort"
	"strings"
)

// SearchResult is the definite outcome of a lookup: either a found entry or
// a structured miss carrying the index's freshness so callers can tell
// "index not ready yet" from "this train does not exist".
type SearchResult struct {
	Found       bool        `json:"found"`
	Entry       *IndexEntry `json:"entry,omitempty"`
	IndexStatus Status      `json:"indexStatus"`
	IndexSize   int         `json:"indexSize"`
}

// Search locates a train by a user-entered designator against the current
// snapshot. Direct key probes run first (the query as entered, with
// whitespace stripped, and digits-only); a miss falls back to a linear scan
// over the snapshot's keys in insertion order.
func (s *Store) Search(query string) SearchResult {
	snapshot := s.Current()
	meta := snapshot.Meta()
	result := SearchResult{IndexStatus: meta.Status, IndexSize: snapshot.Len()}

	normalized := strings.ToUpper(strings.TrimSpace(query))
	if normalized == "" {
		return result
	}
	stripped := strings.ReplaceAll(normalized, " ", "")
	digits := digitsOnly(normalized)

	for _, key := range []string{normalized, stripped, digits} {
		if key == "" {
			continue
		}
		if entry, ok := snapshot.Get(key); ok {
			result.Found = true
			result.Entry = entry
			return result
		}
	}

	// Fuzzy fallback: linear scan, insertion order, first match wins.
	// Trades latency for recall; only exercised on a miss.
	if digits != "" {
		for _, key := range snapshot.Keys() {
			entry, ok := snapshot.Get(key)
			if !ok {
				continue
			}
			if strings.Contains(key, digits) || entry.TrainNumber == digits {
				result.Found = true
				result.Entry = entry
				return result
			}
		}
	}

	return result
}

// Autocomplete returns up to ten ranked candidates for a partial query.
// Only bare-number keys are considered so one train does not surface under
// several synonym keys.
func (s *Store) Autocomplete(partialQuery string) []*IndexEntry {
	snapshot := s.Current()

	rawUpper := strings.ToUpper(strings.TrimSpace(partialQuery))
	digits := digitsOnly(rawUpper)
	if rawUpper == "" {
		return nil
	}

	var candidates []*IndexEntry
	seen := make(map[string]struct{})
	for _, key := range snapshot.Keys() {
		if !isAllDigits(key) {
			continue
		}
		entry, ok := snapshot.Get(key)
		if !ok {
			continue
		}
		if _, dup := seen[entry.TrainNumber]; dup {
			continue
		}

		matched := false
		if digits != "" && (strings.HasPrefix(key, digits) || strings.HasPrefix(entry.TrainNumber, digits)) {
			matched = true
		}
		if !matched && strings.Contains(strings.ToUpper(entry.LineName), rawUpper) {
			matched = true
		}
		if !matched {
			continue
		}

		seen[entry.TrainNumber] = struct{}{}
		candidates = append(candidates, entry)
	}

	// Exact number match first, then shorter numbers, then lexicographic.
	// Keeps short near-exact matches on top while the user is still typing.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aExact := a.TrainNumber == digits
		bExact := b.TrainNumber == digits
		if aExact != bExact {
			return aExact
		}
		if len(a.TrainNumber) != len(b.TrainNumber) {
			return len(a.TrainNumber) < len(b.TrainNumber)
		}
		return a.TrainNumber < b.TrainNumber
	})

	if len(candidates) > 10 {
		candidates = candidates[:10]
	}
	return candidates
}
