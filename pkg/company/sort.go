package company

import (
	"sort"
	"strings"
	"time"
)

// foundingDateLayouts are tried in order when parsing a founding date.
var foundingDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// FoundingTime parses the record's founding date. ok is false when the
// date is missing or not in a recognized layout.
func (r Record) FoundingTime() (t time.Time, ok bool) {
	if r.FoundingDate == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(*r.FoundingDate)
	for _, layout := range foundingDateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// SortByFoundingDateDesc orders records newest first, in place.
// Records without a usable founding date go last; ties keep fetch order.
func SortByFoundingDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].FoundingTime()
		tj, okJ := records[j].FoundingTime()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}
