package tax2go

import (
	"fmt"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
)

func toInternalDocument(d Document) (domdoc.Document, error) {
	doc, err := domdoc.New(d.ID, d.Title, d.Body, domdoc.Metadata{
		Tags:      d.Tags,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
	})
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return doc, nil
}

func fromInternalDocument(d *domdoc.Document) Document {
	return Document{
		ID:        d.ID(),
		Title:     d.Title(),
		Body:      d.Body(),
		Tags:      d.Tags(),
		Source:    d.Source(),
		CreatedAt: d.CreatedAt(),
	}
}

func fromInternalPage(p *result.Page) SearchPage {
	hits := make([]SearchHit, len(p.Hits))
	for i := range p.Hits {
		h := &p.Hits[i]
		hits[i] = SearchHit{
			Document: Document{
				ID:        h.ID(),
				Title:     h.Title(),
				Body:      h.Body(),
				Tags:      h.Tags(),
				Source:    h.Source(),
				CreatedAt: h.CreatedAt(),
			},
			Score: h.Score(),
		}
	}
	return SearchPage{Hits: hits, Total: p.Total, Took: p.Took}
}
