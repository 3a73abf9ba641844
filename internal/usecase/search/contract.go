package search

import (
	"context"

	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// Index defines the per-user query contract.
type Index interface {
	Search(ctx context.Context, user tenant.ID, req request.Request) (result.Page, error)
}
