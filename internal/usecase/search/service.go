package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/domain/search/filter"
	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
)

// Params are the raw search parameters of one call. Zero Limit selects the default.
type Params struct {
	Query  string
	Limit  int
	Offset int
	Tags   []string
	Source string
}

// Service runs ranked searches over a user's documents.
type Service struct {
	index        Index
	defaultLimit int
	slowQuery    time.Duration
}

// New creates a search service.
func New(index Index) *Service {
	return &Service{index: index, defaultLimit: request.DefaultLimit}
}

// WithDefaultLimit sets the page size used when the caller sends none.
func (s *Service) WithDefaultLimit(limit int) *Service {
	if limit > 0 && limit <= request.MaxLimit {
		s.defaultLimit = limit
	}
	return s
}

// WithSlowQueryThreshold logs searches slower than d. Zero disables slow-query logging.
func (s *Service) WithSlowQueryThreshold(d time.Duration) *Service {
	s.slowQuery = d
	return s
}

// Search validates p and executes it against the user's index.
func (s *Service) Search(ctx context.Context, user tenant.ID, p Params) (result.Page, error) {
	f, err := filter.New(p.Tags, p.Source)
	if err != nil {
		return result.Page{}, domain.Invalid(err)
	}
	limit := p.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	req, err := request.New(p.Query, limit, p.Offset, f)
	if err != nil {
		return result.Page{}, domain.Invalid(err)
	}

	page, err := s.index.Search(ctx, user, req)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}

	if s.slowQuery > 0 && page.Took > s.slowQuery {
		logger.FromContext(ctx).Warn("Slow search",
			zap.Duration("took", page.Took),
			zap.Int("query_len", len(p.Query)),
			zap.Int("limit", limit),
			zap.Int("offset", p.Offset),
			zap.Int("total", page.Total),
		)
	}
	return page, nil
}
