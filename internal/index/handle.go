package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"golang.org/x/sync/semaphore"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/metrics"
)

// DefaultWriterMemory is the writer memory budget used when none is configured.
const DefaultWriterMemory uint64 = 50 << 20

// Options tunes how per-user indexes are opened.
type Options struct {
	// WriterMemoryBytes bounds unpersisted segment memory before writers are paused.
	WriterMemoryBytes uint64
}

func (o Options) engineConfig() map[string]any {
	budget := o.WriterMemoryBytes
	if budget == 0 {
		budget = DefaultWriterMemory
	}
	return map[string]any{
		"scorchPersisterOptions": map[string]any{
			"MemoryPressurePauseThreshold": budget,
		},
	}
}

// Handle is an open per-user index: one writer slot plus a reader that always
// sees the latest committed snapshot.
type Handle struct {
	user   tenant.ID
	path   string
	idx    bleve.Index
	writer *semaphore.Weighted
	closed atomic.Bool
}

// openHandle opens the index at path, creating it when absent.
// created reports whether a new empty index was initialized.
func openHandle(user tenant.ID, path string, opts Options) (h *Handle, created bool, err error) {
	idx, created, err := openOrCreate(path, opts)
	if err != nil {
		return nil, false, err
	}
	return &Handle{
		user:   user,
		path:   path,
		idx:    idx,
		writer: semaphore.NewWeighted(1),
	}, created, nil
}

func openOrCreate(path string, opts Options) (bleve.Index, bool, error) {
	cfg := opts.engineConfig()

	idx, err := bleve.OpenUsing(path, cfg)
	switch {
	case err == nil:
		return idx, false, nil
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
	case errors.Is(err, bleve.ErrorIndexMetaMissing) && isEmptyDir(path):
		// A create that died before writing metadata leaves an empty directory.
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, false, fmt.Errorf("%w: remove incomplete index dir: %w", domain.ErrStorage, rmErr)
		}
	default:
		return nil, false, fmt.Errorf("%w: open index: %w", domain.ErrStorage, err)
	}

	im, err := Schema()
	if err != nil {
		return nil, false, err
	}
	idx, err = bleve.NewUsing(path, im, scorch.Name, bleve.Config.DefaultKVStore, cfg)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create index: %w", domain.ErrStorage, err)
	}
	return idx, true, nil
}

func isEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

// mutate runs fn against a fresh batch while holding the writer slot and commits it.
// The batch becomes visible to readers atomically when mutate returns nil.
func (h *Handle) mutate(ctx context.Context, fn func(b *bleve.Batch) error) error {
	waitStart := time.Now()
	if err := h.writer.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire writer: %w", err)
	}
	defer h.writer.Release(1)
	metrics.IndexWriterWaitSeconds.Observe(time.Since(waitStart).Seconds())

	if h.closed.Load() {
		return domain.ErrClosed
	}
	// Acquire may succeed on an already cancelled context.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("acquire writer: %w", err)
	}

	b := h.idx.NewBatch()
	if err := fn(b); err != nil {
		return err
	}
	if err := h.idx.Batch(b); err != nil {
		return h.storageErr("commit", err)
	}
	return nil
}

// query runs a search against the latest committed snapshot. It never waits for the writer.
func (h *Handle) query(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	res, err := h.idx.SearchInContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("search: %w", ctxErr)
		}
		return nil, h.storageErr("search", err)
	}
	return res, nil
}

func (h *Handle) docCount() (uint64, error) {
	n, err := h.idx.DocCount()
	if err != nil {
		return 0, h.storageErr("count", err)
	}
	return n, nil
}

func (h *Handle) storageErr(op string, err error) error {
	if errors.Is(err, bleve.ErrorIndexClosed) || h.closed.Load() {
		return domain.ErrClosed
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

// close waits for an in-flight write, then flushes and closes the index.
func (h *Handle) close() error {
	_ = h.writer.Acquire(context.Background(), 1)
	defer h.writer.Release(1)

	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := h.idx.Close(); err != nil {
		return fmt.Errorf("%w: close index: %w", domain.ErrStorage, err)
	}
	return nil
}

// Path returns the on-disk location of the index.
func (h *Handle) Path() string { return h.path }

// User returns the owner of the index.
func (h *Handle) User() tenant.ID { return h.user }
