package query

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// MaxPageSize is the upstream's documented maximum page size.
const MaxPageSize = 100

// PageRequest identifies one page of a company listing.
type PageRequest struct {
	Country string

	// Page is zero-based.
	Page int

	// Size is between 1 and MaxPageSize.
	Size int

	// FoundedFrom and FoundedTo are YYYY-MM-DD; FoundedTo may be empty.
	FoundedFrom string
	FoundedTo   string
}

// NewPageRequest derives the request for page index page with the given size.
func (f Filter) NewPageRequest(page, size int) PageRequest {
	return PageRequest{
		Country:     f.Country,
		Page:        page,
		Size:        size,
		FoundedFrom: f.FromString(),
		FoundedTo:   f.ToString(),
	}
}

// Validate checks the page request input constraints.
func (r PageRequest) Validate() error {
	if r.Page < 0 {
		return fmt.Errorf("page must be >= 0 (got %d)", r.Page)
	}
	if r.Size < 1 || r.Size > MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d (got %d)", MaxPageSize, r.Size)
	}
	if _, err := time.Parse(DateLayout, r.FoundedFrom); err != nil {
		return fmt.Errorf("foundingDateFrom %q: %w", r.FoundedFrom, err)
	}
	if r.FoundedTo != "" {
		if _, err := time.Parse(DateLayout, r.FoundedTo); err != nil {
			return fmt.Errorf("foundingDateTo %q: %w", r.FoundedTo, err)
		}
	}
	return nil
}

// Values renders the request as upstream query parameters.
// foundingDateTo is only present when an upper bound is set.
func (r PageRequest) Values() url.Values {
	v := url.Values{}
	v.Set("countryCode", r.Country)
	v.Set("page", strconv.Itoa(r.Page))
	v.Set("size", strconv.Itoa(r.Size))
	v.Set("foundingDateFrom", r.FoundedFrom)
	if r.FoundedTo != "" {
		v.Set("foundingDateTo", r.FoundedTo)
	}
	return v
}
