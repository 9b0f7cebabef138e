package model

import (
	"strings"
	"time"
)

// Status annotates a persisted record with its reconciliation outcome.
// An empty status means the record is current and unremarkable.
type Status string

const (
	StatusNew        Status = "New"
	StatusChangedOld Status = "ChangeCandidate-Old" // flagged, may be stale
	StatusChangedNew Status = "ChangeCandidate-New" // flagged, may be current
	StatusInactive   Status = "Inactive"
)

// Record is one business entity, one row in the snapshot store.
// Scraped fields use the empty string for "absent"; coordinates are
// only present for map-mode searches.
type Record struct {
	InputContext string     `json:"input_context"`
	Name         string     `json:"name,omitempty"`
	Address      string     `json:"address,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Website      string     `json:"website,omitempty"`
	Email        string     `json:"email,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Status       Status     `json:"status,omitempty"`
	LastSeen     time.Time  `json:"last_seen"`
}

// CompareKey is the normalized 5-field signature used for reconciliation.
// Records carry no stable external identifier across runs, so identity is
// defined entirely over this tuple.
type CompareKey [5]string

// blankVariants are field values that mean "absent". The upstream sheet
// historically stored Python-flavored nulls as literal text.
var blankVariants = map[string]struct{}{
	"":     {},
	"none": {},
	"nan":  {},
	"null": {},
}

// NormalizeField maps blank and null-like values to the empty string and
// trims surrounding whitespace. Idempotent.
func NormalizeField(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := blankVariants[strings.ToLower(v)]; ok {
		return ""
	}
	return v
}

// Key computes the record's comparison tuple: (name, address, phone,
// website, email), each field normalized.
func (r Record) Key() CompareKey {
	return CompareKey{
		NormalizeField(r.Name),
		NormalizeField(r.Address),
		NormalizeField(r.Phone),
		NormalizeField(r.Website),
		NormalizeField(r.Email),
	}
}

// Overlap counts how many of the 5 comparison fields are equal between the
// two keys, case-insensitively. Empty-empty pairs count as equal, matching
// the partial-match semantics of the original sheet logic.
func (k CompareKey) Overlap(other CompareKey) int {
	n := 0
	for i := range k {
		if strings.EqualFold(k[i], other[i]) {
			n++
		}
	}
	return n
}

// PartialMatchThreshold is the minimum field overlap that flags a pair of
// records as "same business, possibly changed data".
const PartialMatchThreshold = 2
