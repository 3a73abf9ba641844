package chi

import (
	"time"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
)

// statusSuccess is reported by every acknowledged write.
const statusSuccess = "success"

// DocumentMetadata carries the filterable attributes of a document.
type DocumentMetadata struct {
	Tags      []string   `json:"tags,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// IndexDocumentRequest is the body of PUT /v1/documents.
type IndexDocumentRequest struct {
	ID       string           `json:"id,omitempty"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DeleteDocumentRequest is the body of DELETE /v1/documents.
type DeleteDocumentRequest struct {
	ID string `json:"id"`
}

// OperationResponse acknowledges a write.
type OperationResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SearchFilters restricts a search by metadata.
type SearchFilters struct {
	Tags   []string `json:"tags,omitempty"`
	Source string   `json:"source,omitempty"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query   string        `json:"query"`
	Limit   *int          `json:"limit,omitempty"`
	Offset  int           `json:"offset"`
	Filters SearchFilters `json:"filters"`
}

// SearchHit is one ranked result. Body is truncated.
type SearchHit struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Score     float64  `json:"score"`
	CreatedAt *string  `json:"created_at"`
	Tags      []string `json:"tags"`
	Source    *string  `json:"source"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
	Total   int         `json:"total"`
	Query   string      `json:"query"`
	TookMs  int64       `json:"took_ms"`
}

// DocumentDetail is a full stored document.
type DocumentDetail struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	CreatedAt *string  `json:"created_at"`
	Tags      []string `json:"tags"`
	Source    *string  `json:"source"`
}

// BrowseResponse is the body returned by GET /v1/documents.
type BrowseResponse struct {
	Documents []DocumentDetail `json:"documents"`
	Total     int              `json:"total"`
	TookMs    int64            `json:"took_ms"`
}

// StatsResponse is the body returned by GET /v1/stats.
type StatsResponse struct {
	UserID       string `json:"user_id"`
	NumDocuments int    `json:"num_documents"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Checks      map[string]string `json:"checks"`
	OpenIndexes int               `json:"open_indexes"`
}

func documentFromRequest(req *IndexDocumentRequest) (domdoc.Document, error) {
	meta := domdoc.Metadata{Tags: req.Metadata.Tags, Source: req.Metadata.Source}
	if req.Metadata.CreatedAt != nil {
		meta.CreatedAt = *req.Metadata.CreatedAt
	}
	return domdoc.New(req.ID, req.Title, req.Body, meta)
}

func searchResponseFrom(page *result.Page) SearchResponse {
	hits := make([]SearchHit, len(page.Hits))
	for i := range page.Hits {
		h := &page.Hits[i]
		hits[i] = SearchHit{
			ID:        h.ID(),
			Title:     h.Title(),
			Body:      h.Body(),
			Score:     h.Score(),
			CreatedAt: timestamp(h.CreatedAt()),
			Tags:      nonNil(h.Tags()),
			Source:    optional(h.Source()),
		}
	}
	return SearchResponse{
		Results: hits,
		Total:   page.Total,
		Query:   page.Query,
		TookMs:  page.Took.Milliseconds(),
	}
}

func browseResponseFrom(listing *result.Listing) BrowseResponse {
	docs := make([]DocumentDetail, len(listing.Documents))
	for i := range listing.Documents {
		d := &listing.Documents[i]
		docs[i] = DocumentDetail{
			ID:        d.ID(),
			Title:     d.Title(),
			Body:      d.Body(),
			CreatedAt: timestamp(d.CreatedAt()),
			Tags:      nonNil(d.Tags()),
			Source:    optional(d.Source()),
		}
	}
	return BrowseResponse{
		Documents: docs,
		Total:     listing.Total,
		TookMs:    listing.Took.Milliseconds(),
	}
}

func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
