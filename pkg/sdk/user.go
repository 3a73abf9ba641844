package tax2go

import (
	"context"
	"fmt"
	"time"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	searchuc "github.com/shaond/tax2go-search/internal/usecase/search"
)

// UserIndex is the document collection of one user. Safe for concurrent use.
type UserIndex struct {
	user      tenant.ID
	docSvc    documentUseCase
	searchSvc searchUseCase
	rec       *recorder
}

// User returns the identity this index belongs to.
func (u *UserIndex) User() string { return u.user.String() }

// Put indexes doc, replacing any document with the same ID, and returns its ID.
// The document is searchable once Put returns.
func (u *UserIndex) Put(ctx context.Context, doc Document) (id string, err error) {
	start := time.Now()
	defer func() { u.rec.done(ctx, "put", u.user, start, err) }()

	d, err := toInternalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("put: %w", err)
	}
	id, err = u.docSvc.Put(ctx, u.user, d)
	if err != nil {
		return "", fmt.Errorf("put: %w", err)
	}
	return id, nil
}

// Delete removes the document with id. Deleting an unknown ID succeeds.
func (u *UserIndex) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { u.rec.done(ctx, "delete", u.user, start, err) }()

	if err = u.docSvc.Delete(ctx, u.user, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Search runs a BM25-ranked query over title and body.
func (u *UserIndex) Search(ctx context.Context, q SearchQuery) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { u.rec.done(ctx, "search", u.user, start, err) }()

	page, err := u.searchSvc.Search(ctx, u.user, searchuc.Params{
		Query:  q.Query,
		Limit:  q.Limit,
		Offset: q.Offset,
		Tags:   q.Tags,
		Source: q.Source,
	})
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalPage(&page), nil
}

// List returns documents ordered by ID. Zero limit selects the default page size.
func (u *UserIndex) List(ctx context.Context, limit, offset int) (_ DocumentList, err error) {
	start := time.Now()
	defer func() { u.rec.done(ctx, "list", u.user, start, err) }()

	listing, err := u.docSvc.List(ctx, u.user, limit, offset)
	if err != nil {
		return DocumentList{}, fmt.Errorf("list: %w", err)
	}
	out := make([]Document, len(listing.Documents))
	for i := range listing.Documents {
		out[i] = fromInternalDocument(&listing.Documents[i])
	}
	return DocumentList{Documents: out, Total: listing.Total, Took: listing.Took}, nil
}

// Count returns the number of documents in the index.
func (u *UserIndex) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { u.rec.done(ctx, "count", u.user, start, err) }()

	n, err = u.docSvc.Count(ctx, u.user)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Internal interfaces, swapped out in tests.
type documentUseCase interface {
	Put(ctx context.Context, user tenant.ID, doc domdoc.Document) (string, error)
	Delete(ctx context.Context, user tenant.ID, id string) error
	List(ctx context.Context, user tenant.ID, limit, offset int) (result.Listing, error)
	Count(ctx context.Context, user tenant.ID) (int, error)
}

type searchUseCase interface {
	Search(ctx context.Context, user tenant.ID, p searchuc.Params) (result.Page, error)
}
