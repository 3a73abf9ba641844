package index

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// rankOrder sorts by descending relevance, ties broken by ascending id.
var rankOrder = []string{"-_score", "_id"}

// Search runs a ranked full-text query over title and body of the user's documents.
// Hits carry a body truncated to BodyPreviewLength characters.
func (m *Manager) Search(ctx context.Context, user tenant.ID, req request.Request) (_ result.Page, err error) {
	start := time.Now()
	defer func() { m.observe(opSearch, user, start, err) }()

	h, err := m.resolve(ctx, user)
	if err != nil {
		return result.Page{}, err
	}

	sr := bleve.NewSearchRequestOptions(buildQuery(req), req.Limit(), req.Offset(), false)
	sr.Fields = storedFields
	sr.SortBy(rankOrder)

	res, err := h.query(ctx, sr)
	if err != nil {
		return result.Page{}, fmt.Errorf("search documents: %w", err)
	}

	hits := make([]result.Hit, 0, len(res.Hits))
	for _, dm := range res.Hits {
		d := fromStored(dm.ID, dm.Fields)
		hits = append(hits, result.NewHit(
			d.ID(), d.Title(), TruncateBody(d.Body()), dm.Score,
			d.Tags(), d.Source(), d.CreatedAt(),
		))
	}
	return result.Page{
		Hits:  hits,
		Total: int(res.Total), //nolint:gosec // document counts fit in int
		Query: req.Query(),
		Took:  time.Since(start),
	}, nil
}

// buildQuery matches the text against title or body and applies metadata filters.
// Tag filters are any-of; the source filter must match exactly.
func buildQuery(req request.Request) query.Query {
	title := bleve.NewMatchQuery(req.Query())
	title.SetField(FieldTitle)
	body := bleve.NewMatchQuery(req.Query())
	body.SetField(FieldBody)
	text := bleve.NewDisjunctionQuery(title, body)

	f := req.Filters()
	if f.IsEmpty() {
		return text
	}

	conj := bleve.NewConjunctionQuery(text)
	if tags := f.Tags(); len(tags) > 0 {
		anyOf := make([]query.Query, 0, len(tags))
		for _, t := range tags {
			tq := bleve.NewTermQuery(t)
			tq.SetField(FieldTags)
			anyOf = append(anyOf, tq)
		}
		conj.AddQuery(bleve.NewDisjunctionQuery(anyOf...))
	}
	if f.HasSource() {
		sq := bleve.NewTermQuery(f.Source())
		sq.SetField(FieldSource)
		conj.AddQuery(sq)
	}
	return conj
}

// Stats returns the number of live documents in the user's index.
func (m *Manager) Stats(ctx context.Context, user tenant.ID) (_ result.Stats, err error) {
	start := time.Now()
	defer func() { m.observe(opStats, user, start, err) }()

	h, err := m.resolve(ctx, user)
	if err != nil {
		return result.Stats{}, err
	}
	n, err := h.docCount()
	if err != nil {
		return result.Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return result.Stats{User: user, Documents: int(n)}, nil //nolint:gosec // document counts fit in int
}
