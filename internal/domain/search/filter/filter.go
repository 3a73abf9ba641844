package filter

import (
	"fmt"
	"strings"
)

// MaxTags is the maximum number of tag values in one filter.
const MaxTags = 32

// Filters restricts a search to documents carrying metadata values.
// Tags match when the document has at least one of them; source must be equal.
// Both groups are combined with AND.
type Filters struct {
	tags   []string
	source string
}

// New validates and creates Filters. Empty tags and source mean "no filter".
func New(tags []string, source string) (Filters, error) {
	if len(tags) > MaxTags {
		return Filters{}, fmt.Errorf("too many tag filters (max %d)", MaxTags)
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return Filters{}, fmt.Errorf("tag filter must not be blank")
		}
	}
	var cp []string
	if len(tags) > 0 {
		cp = append(cp, tags...)
	}
	return Filters{tags: cp, source: source}, nil
}

// Tags returns the requested tags (any-of).
func (f Filters) Tags() []string { return f.tags }

// Source returns the requested source, empty when unset.
func (f Filters) Source() string { return f.source }

// HasSource reports whether a source filter is set.
func (f Filters) HasSource() bool { return f.source != "" }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool { return len(f.tags) == 0 && f.source == "" }
