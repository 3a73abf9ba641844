package tax2go

import "time"

// Document is a searchable document.
// ID is optional on Put; a UUID is assigned when empty. A zero CreatedAt is set to the write time.
type Document struct {
	ID        string
	Title     string
	Body      string
	Tags      []string
	Source    string
	CreatedAt time.Time
}

// SearchQuery is one ranked search. Zero Limit selects the default page size.
// Tags match any of the given values; Source matches exactly.
type SearchQuery struct {
	Query  string
	Limit  int
	Offset int
	Tags   []string
	Source string
}

// SearchHit is a single ranked result. Body is truncated to a preview.
type SearchHit struct {
	Document
	Score float64
}

// SearchPage is one page of ranked results.
type SearchPage struct {
	Hits  []SearchHit
	Total int
	Took  time.Duration
}

// DocumentList is one page of documents ordered by ID.
type DocumentList struct {
	Documents []Document
	Total     int
	Took      time.Duration
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status      string            // "ok" or "error"
	Checks      map[string]string // component → "ok"/"error"
	OpenIndexes int
}
