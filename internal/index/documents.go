package index

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// Put stores doc in the user's index, replacing any document with the same id.
// An empty id is replaced by a generated one; a zero creation time by the current time.
// The document is visible to searches of the same user once Put returns.
func (m *Manager) Put(ctx context.Context, user tenant.ID, doc domdoc.Document) (id string, err error) {
	start := time.Now()
	defer func() { m.observe(opPut, user, start, err) }()

	h, err := m.resolve(ctx, user)
	if err != nil {
		return "", err
	}

	if doc.ID() == "" {
		doc = doc.WithID(m.newID())
	}
	if doc.CreatedAt().IsZero() {
		doc = doc.WithCreatedAt(m.now())
	}

	err = h.mutate(ctx, func(b *bleve.Batch) error {
		// Index on an existing id drops the previous version in the same commit.
		if err := b.Index(doc.ID(), toStored(&doc)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("put document: %w", err)
	}

	m.logger.Debug("Document indexed", append(m.redact.Fields(user), zap.String("doc_id", doc.ID()))...)
	return doc.ID(), nil
}

// Delete removes the document with id from the user's index.
// Deleting an id that does not exist succeeds.
func (m *Manager) Delete(ctx context.Context, user tenant.ID, id string) (err error) {
	start := time.Now()
	defer func() { m.observe(opDelete, user, start, err) }()

	if err := domdoc.ValidateID(id); err != nil {
		return domain.Invalid(err)
	}
	h, err := m.resolve(ctx, user)
	if err != nil {
		return err
	}

	err = h.mutate(ctx, func(b *bleve.Batch) error {
		b.Delete(id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List pages through the user's documents in identifier order.
func (m *Manager) List(ctx context.Context, user tenant.ID, br request.Browse) (_ result.Listing, err error) {
	start := time.Now()
	defer func() { m.observe(opList, user, start, err) }()

	h, err := m.resolve(ctx, user)
	if err != nil {
		return result.Listing{}, err
	}

	sr := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), br.Limit(), br.Offset(), false)
	sr.Fields = storedFields
	sr.SortBy([]string{"_id"})

	res, err := h.query(ctx, sr)
	if err != nil {
		return result.Listing{}, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		docs = append(docs, fromStored(hit.ID, hit.Fields))
	}
	return result.Listing{
		Documents: docs,
		Total:     int(res.Total), //nolint:gosec // document counts fit in int
		Took:      time.Since(start),
	}, nil
}
