package document

import (
	"context"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// Index defines the per-user document storage contract.
type Index interface {
	Put(ctx context.Context, user tenant.ID, doc domdoc.Document) (string, error)
	Delete(ctx context.Context, user tenant.ID, id string) error
	List(ctx context.Context, user tenant.ID, br request.Browse) (result.Listing, error)
	Stats(ctx context.Context, user tenant.ID) (result.Stats, error)
}
