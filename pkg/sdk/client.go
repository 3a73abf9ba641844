package tax2go

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/index"
	"github.com/shaond/tax2go-search/internal/logger"
	documentuc "github.com/shaond/tax2go-search/internal/usecase/document"
	healthuc "github.com/shaond/tax2go-search/internal/usecase/health"
	searchuc "github.com/shaond/tax2go-search/internal/usecase/search"
)

// Client is the tax2go SDK entry point. It owns the data directory until Close.
type Client struct {
	manager   *index.Manager
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
	rec       *recorder
}

// New opens the data directory and returns a ready Client.
// The provided context bounds the initial storage check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dataDir == "" {
		return nil, errors.New("tax2go: data directory required (use WithDataDir)")
	}

	rec, err := newRecorder(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	manager, err := index.NewManager(index.Config{
		DataDir:           cfg.dataDir,
		WriterMemoryBytes: cfg.writerMemoryBytes,
		Redactor:          logger.NewRedactor("", false),
	})
	if err != nil {
		return nil, fmt.Errorf("tax2go: open data directory: %w", err)
	}
	if err := manager.Ping(ctx); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("tax2go: data directory not usable: %w", err)
	}

	return &Client{
		manager:   manager,
		docSvc:    documentuc.New(manager).WithPagination(cfg.defaultBrowseLimit),
		searchSvc: searchuc.New(manager).WithDefaultLimit(cfg.defaultLimit),
		healthSvc: healthuc.New(manager, manager),
		rec:       rec,
	}, nil
}

// Close flushes every open index and releases the data directory.
func (c *Client) Close() error {
	if err := c.manager.Close(); err != nil {
		return fmt.Errorf("tax2go: %w", err)
	}
	return nil
}

// Ping checks that the data directory is usable.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.rec.done(ctx, "ping", tenant.ID{}, start, err) }()

	if err = c.manager.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the storage and reports the number of open indexes.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:      string(report.Status),
		Checks:      checks,
		OpenIndexes: report.OpenIndexes,
	}
}

// User returns the index of one user. userID must be a canonical UUID.
// The index itself is opened lazily on first use.
func (c *Client) User(userID string) (*UserIndex, error) {
	id, err := tenant.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("tax2go: %w: %w", ErrInvalidInput, err)
	}
	return &UserIndex{
		user:      id,
		docSvc:    c.docSvc,
		searchSvc: c.searchSvc,
		rec:       c.rec,
	}, nil
}
