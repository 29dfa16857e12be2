package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/prodex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 500
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	query   string
	limit   int
	offset  int
	filters filter.Filter
}

// Limits bounds query length and page size. Zero fields fall back to the
// package defaults.
type Limits struct {
	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
}

// New validates and normalizes search parameters with the default limits.
// Query is trimmed and must be 1-500 chars. Limit defaults to 20 and is
// clamped to 100. Offset must be non-negative.
func New(query string, limit, offset int, filters filter.Filter) (Request, error) {
	return Limits{}.New(query, limit, offset, filters)
}

// New validates and normalizes search parameters against l.
func (l Limits) New(query string, limit, offset int, filters filter.Filter) (Request, error) {
	l = l.withDefaults()
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > l.MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", l.MaxQueryLength)
	}
	if limit <= 0 {
		limit = l.DefaultLimit
	}
	if limit > l.MaxLimit {
		limit = l.MaxLimit
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must be non-negative")
	}
	return Request{query: query, limit: limit, offset: offset, filters: filters}, nil
}

func (l Limits) withDefaults() Limits {
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = DefaultLimit
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = MaxLimit
	}
	if l.MaxQueryLength <= 0 {
		l.MaxQueryLength = MaxQueryLength
	}
	return l
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of ranked results to skip.
func (r *Request) Offset() int { return r.offset }

// Filters returns the candidate pre-filter.
func (r *Request) Filters() filter.Filter { return r.filters }
