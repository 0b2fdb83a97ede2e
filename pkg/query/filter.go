// Package query defines the user-facing company search filter and the
// per-page requests derived from it.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the upstream date format for founding-date bounds.
const DateLayout = "2006-01-02"

// Limits on the requested result count.
const (
	// DefaultLimit is the result count used when the caller supplies none.
	DefaultLimit = 100

	// MaxLimit caps the result count accepted from user input (form, query
	// string, CLI flags). Filters built in code are not capped.
	MaxLimit = 1000
)

// DefaultCountry is used when no country code is supplied.
const DefaultCountry = "DE"

// Filter describes one company search.
type Filter struct {
	// Country is an ISO-2 country code. Case-insensitive; normalized to upper case.
	Country string

	// FoundedFrom is the inclusive lower bound on the founding date.
	FoundedFrom time.Time

	// FoundedTo is the optional inclusive upper bound on the founding date.
	FoundedTo *time.Time

	// Limit is the requested result count.
	Limit int
}

// Normalize returns a copy of the filter with the country code trimmed and
// upper-cased. The code itself is not checked against any list.
func (f Filter) Normalize() Filter {
	f.Country = strings.ToUpper(strings.TrimSpace(f.Country))
	return f
}

// Validate checks the filter invariants. It never touches the network.
func (f Filter) Validate() error {
	if f.FoundedFrom.IsZero() {
		return &InputError{Field: "from", Message: "start date is required"}
	}
	if f.FoundedTo != nil && f.FoundedFrom.After(*f.FoundedTo) {
		return &InputError{Field: "to", Message: "Start date must be on or before End date."}
	}
	if f.Limit <= 0 {
		return &InputError{Field: "limit", Message: fmt.Sprintf("result count must be positive (got %d)", f.Limit)}
	}
	return nil
}

// FromString formats the lower bound for the upstream.
func (f Filter) FromString() string {
	return f.FoundedFrom.Format(DateLayout)
}

// ToString formats the upper bound for the upstream, or "" when unset.
func (f Filter) ToString() string {
	if f.FoundedTo == nil {
		return ""
	}
	return f.FoundedTo.Format(DateLayout)
}

// Params is the raw, string-typed form of a Filter as typed by a user
// (form fields, query string, CLI flags).
type Params struct {
	Country string
	From    string
	To      string
	Limit   string
}

// Parse turns raw parameters into a normalized, validated Filter.
// Empty country and limit fall back to DefaultCountry and DefaultLimit, and
// the limit may not exceed MaxLimit.
func Parse(p Params) (Filter, error) {
	var f Filter

	f.Country = p.Country
	if strings.TrimSpace(f.Country) == "" {
		f.Country = DefaultCountry
	}

	from, err := ParseDate(p.From)
	if err != nil {
		return Filter{}, &InputError{Field: "from", Message: "start date must be YYYY-MM-DD", Err: err}
	}
	f.FoundedFrom = from

	if strings.TrimSpace(p.To) != "" {
		to, err := ParseDate(p.To)
		if err != nil {
			return Filter{}, &InputError{Field: "to", Message: "end date must be YYYY-MM-DD", Err: err}
		}
		f.FoundedTo = &to
	}

	f.Limit = DefaultLimit
	if s := strings.TrimSpace(p.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Filter{}, &InputError{Field: "limit", Message: "result count must be a whole number", Err: err}
		}
		f.Limit = n
	}
	if f.Limit > MaxLimit {
		return Filter{}, &InputError{Field: "limit", Message: fmt.Sprintf("result count must be <= %d (got %d)", MaxLimit, f.Limit)}
	}

	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
