package result

import (
	"time"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// Hit is a single ranked search hit.
type Hit struct {
	id        string
	title     string
	body      string
	score     float64
	tags      []string
	source    string
	createdAt time.Time
}

// NewHit creates a search hit. body is expected to be already truncated for display.
func NewHit(id, title, body string, score float64, tags []string, source string, createdAt time.Time) Hit {
	return Hit{
		id: id, title: title, body: body, score: score,
		tags: tags, source: source, createdAt: createdAt,
	}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Title returns the document title.
func (h *Hit) Title() string { return h.title }

// Body returns the (possibly truncated) document body.
func (h *Hit) Body() string { return h.body }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Tags returns the document tags.
func (h *Hit) Tags() []string { return h.tags }

// Source returns the document source.
func (h *Hit) Source() string { return h.source }

// CreatedAt returns the stored creation timestamp.
func (h *Hit) CreatedAt() time.Time { return h.createdAt }

// Page is one page of ranked hits.
type Page struct {
	Hits  []Hit
	Total int // matches before pagination
	Query string
	Took  time.Duration
}

// Listing is one page of a user's documents in identifier order.
type Listing struct {
	Documents []domdoc.Document
	Total     int
	Took      time.Duration
}

// Stats describes one user's index.
type Stats struct {
	User      tenant.ID
	Documents int
}
