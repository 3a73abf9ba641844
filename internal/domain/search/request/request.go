package request

import (
	"fmt"
	"strings"

	"github.com/shaond/tax2go-search/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
	// MaxOffset bounds deep pagination; the engine materialises offset+limit hits.
	MaxOffset = 10000

	DefaultBrowseLimit = 50
	MaxBrowseLimit     = 1000
)

// Request is a validated search query.
type Request struct {
	query   string
	limit   int
	offset  int
	filters filter.Filters
}

// New validates search parameters.
// A blank query is rejected: there is no implicit match-all.
// limit must be in [1, MaxLimit], offset in [0, MaxOffset].
func New(query string, limit, offset int, filters filter.Filters) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query cannot be empty")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if limit <= 0 {
		return Request{}, fmt.Errorf("limit must be greater than 0")
	}
	if limit > MaxLimit {
		return Request{}, fmt.Errorf("limit cannot exceed %d", MaxLimit)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}
	if offset > MaxOffset {
		return Request{}, fmt.Errorf("offset cannot exceed %d", MaxOffset)
	}
	return Request{query: query, limit: limit, offset: offset, filters: filters}, nil
}

// Query returns the raw query text.
func (r Request) Query() string { return r.query }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// Offset returns the number of ranked hits to skip.
func (r Request) Offset() int { return r.offset }

// Filters returns the metadata filters.
func (r Request) Filters() filter.Filters { return r.filters }

// Browse is a validated request to page through all documents of a user.
type Browse struct {
	limit  int
	offset int
}

// NewBrowse validates browse pagination. A zero limit selects DefaultBrowseLimit.
func NewBrowse(limit, offset int) (Browse, error) {
	if limit < 0 {
		return Browse{}, fmt.Errorf("limit must not be negative")
	}
	if limit == 0 {
		limit = DefaultBrowseLimit
	}
	if limit > MaxBrowseLimit {
		return Browse{}, fmt.Errorf("limit cannot exceed %d", MaxBrowseLimit)
	}
	if offset < 0 {
		return Browse{}, fmt.Errorf("offset must not be negative")
	}
	if offset > MaxOffset {
		return Browse{}, fmt.Errorf("offset cannot exceed %d", MaxOffset)
	}
	return Browse{limit: limit, offset: offset}, nil
}

// Limit returns the page size.
func (b Browse) Limit() int { return b.limit }

// Offset returns the number of documents to skip.
func (b Browse) Offset() int { return b.offset }
