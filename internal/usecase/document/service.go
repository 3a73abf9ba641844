package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
)

// Service handles writes and browsing of a user's documents.
type Service struct {
	index           Index
	defaultPageSize int
}

// New creates a document service.
func New(index Index) *Service {
	return &Service{index: index, defaultPageSize: request.DefaultBrowseLimit}
}

// WithPagination configures the browse page size used when the caller sends none.
func (s *Service) WithPagination(defaultPageSize int) *Service {
	if defaultPageSize > 0 && defaultPageSize <= request.MaxBrowseLimit {
		s.defaultPageSize = defaultPageSize
	}
	return s
}

// Put indexes a document and returns its identifier.
func (s *Service) Put(ctx context.Context, user tenant.ID, doc domdoc.Document) (string, error) {
	id, err := s.index.Put(ctx, user, doc)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}
	logger.FromContext(ctx).Debug("Document indexed", zap.String("doc_id", id))
	return id, nil
}

// Delete removes a document. Unknown identifiers are not an error.
func (s *Service) Delete(ctx context.Context, user tenant.ID, id string) error {
	if err := domdoc.ValidateID(id); err != nil {
		return domain.Invalid(err)
	}
	if err := s.index.Delete(ctx, user, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns one page of documents ordered by identifier. limit 0 selects the default page size.
func (s *Service) List(ctx context.Context, user tenant.ID, limit, offset int) (result.Listing, error) {
	if limit == 0 {
		limit = s.defaultPageSize
	}
	br, err := request.NewBrowse(limit, offset)
	if err != nil {
		return result.Listing{}, domain.Invalid(err)
	}
	listing, err := s.index.List(ctx, user, br)
	if err != nil {
		return result.Listing{}, fmt.Errorf("list documents: %w", err)
	}
	return listing, nil
}

// Count returns the number of documents stored for user.
func (s *Service) Count(ctx context.Context, user tenant.ID) (int, error) {
	st, err := s.index.Stats(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return st.Documents, nil
}
