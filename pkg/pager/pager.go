// Package pager normalizes page/limit pairs for list queries and derives offsets from them.
package pager

import "math"

// DefaultLimit is used whenever a requested limit falls outside [1, MaxLimit].
const (
	DefaultLimit = 20
	MaxLimit     = 20
)

// Page is a normalized page request
type Page struct {
	Number int
	Limit  int
	Offset int
}

// NormalizePage clamps page numbers below 1 to 1
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// NormalizeLimit replaces limits outside [1, MaxLimit] with DefaultLimit
func NormalizeLimit(limit int) int {
	if limit < 1 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// Offset returns the number of rows to skip for the given page.
// Pages 0 and 1 both start at the first row. Pages past the addressable range
// get the largest whole-page offset that fits in an int, so they read as empty.
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return (math.MaxInt / limit) * limit
	}
	return (page - 1) * limit
}

// Normalize applies NormalizePage and NormalizeLimit and computes the offset
func Normalize(page, limit int) Page {
	p := NormalizePage(page)
	l := NormalizeLimit(limit)
	return Page{Number: p, Limit: l, Offset: Offset(p, l)}
}

// TotalPages returns ceil(total/limit)
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
