package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
	"github.com/shaond/tax2go-search/internal/metrics"
)

const (
	lockFileName = ".lock"
	indexDirName = "index"
	dirPerm      = 0o750
	closeWorkers = 8
)

// Registry maps user identities to open index handles.
// Each identity is opened at most once per process; lookups of open handles take a read lock only.
type Registry struct {
	root    string
	opts    Options
	logger  *zap.Logger
	redact  logger.Redactor
	dirLock *flock.Flock

	mu      sync.RWMutex
	handles map[tenant.ID]*Handle
	closed  bool

	opening singleflight.Group
}

// NewRegistry prepares root and takes an exclusive lock on it.
// Returns domain.ErrDataDirLocked when another process holds the lock.
func NewRegistry(root string, opts Options, log *zap.Logger, redact logger.Redactor) (*Registry, error) {
	if root == "" {
		return nil, errors.New("data directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", domain.ErrStorage, err)
	}

	lock := flock.New(filepath.Join(abs, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock data directory: %w", domain.ErrStorage, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrDataDirLocked, abs)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		root:    abs,
		opts:    opts,
		logger:  log,
		redact:  redact,
		dirLock: lock,
		handles: make(map[tenant.ID]*Handle),
	}, nil
}

// Resolve returns the open handle for user, opening or creating the index on first use.
// Concurrent first calls for the same user share a single open.
func (r *Registry) Resolve(ctx context.Context, user tenant.ID) (*Handle, error) {
	if user.IsZero() {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvalidIdentity)
	}

	r.mu.RLock()
	h, ok := r.handles[user]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, domain.ErrClosed
	}
	if ok {
		return h, nil
	}

	ch := r.opening.DoChan(user.String(), func() (any, error) {
		return r.open(user)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil //nolint:forcetypeassert // open only returns *Handle
	case <-ctx.Done():
		return nil, fmt.Errorf("resolve index: %w", ctx.Err())
	}
}

func (r *Registry) open(user tenant.ID) (*Handle, error) {
	// A previous flight may have finished between the fast path and DoChan.
	r.mu.RLock()
	h, ok := r.handles[user]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, domain.ErrClosed
	}
	if ok {
		return h, nil
	}

	path, err := userIndexPath(r.root, user.String())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		metrics.IndexOpensTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: create user directory: %w", domain.ErrStorage, err)
	}

	h, created, err := openHandle(user, path, r.opts)
	if err != nil {
		metrics.IndexOpensTotal.WithLabelValues("error").Inc()
		r.logger.Error("Failed to open index", append(r.redact.Fields(user), zap.Error(err))...)
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = h.close()
		return nil, domain.ErrClosed
	}
	r.handles[user] = h
	count := len(r.handles)
	r.mu.Unlock()

	result := "opened"
	if created {
		result = "created"
	}
	metrics.IndexOpensTotal.WithLabelValues(result).Inc()
	metrics.IndexHandlesOpen.Set(float64(count))
	r.logger.Info("Index ready", append(r.redact.Fields(user), zap.Bool("created", created), zap.Int("open_indexes", count))...)
	return h, nil
}

// userIndexPath derives {root}/{name}/index and rejects names that could leave root.
// name is expected to be a canonical identity; the checks guard against future changes to its source.
func userIndexPath(root, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		strings.ContainsRune(name, 0) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %w: unsafe path component", domain.ErrInvalidInput, domain.ErrInvalidIdentity)
	}
	p := filepath.Join(root, name, indexDirName)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %w: path escapes data directory", domain.ErrInvalidInput, domain.ErrInvalidIdentity)
	}
	return p, nil
}

// Len returns the number of open handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Root returns the absolute data directory.
func (r *Registry) Root() string { return r.root }

// Exists reports whether user already has an index, open or on disk. It never creates one.
func (r *Registry) Exists(user tenant.ID) (bool, error) {
	if user.IsZero() {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvalidIdentity)
	}
	r.mu.RLock()
	_, open := r.handles[user]
	r.mu.RUnlock()
	if open {
		return true, nil
	}

	p, err := userIndexPath(r.root, user.String())
	if err != nil {
		return false, err
	}
	switch _, err := os.Stat(p); {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat index: %w", domain.ErrStorage, err)
	}
}

// Ping checks that the data directory is still present and locked by this process.
func (r *Registry) Ping(_ context.Context) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return domain.ErrClosed
	}
	fi, err := os.Stat(r.root)
	if err != nil {
		return fmt.Errorf("%w: stat data directory: %w", domain.ErrStorage, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: data directory is not a directory", domain.ErrStorage)
	}
	if !r.dirLock.Locked() {
		return fmt.Errorf("%w: data directory lock lost", domain.ErrStorage)
	}
	return nil
}

// Close flushes and closes every open handle, then releases the directory lock.
// Later Resolve calls fail with domain.ErrClosed. Close is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	handles := r.handles
	r.handles = make(map[tenant.ID]*Handle)
	r.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
		g     errgroup.Group
	)
	g.SetLimit(closeWorkers)
	for user, h := range handles {
		g.Go(func() error {
			if err := h.close(); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("close index %s: %w", r.redact.Hash(user), err))
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	metrics.IndexHandlesOpen.Set(0)

	if err := r.dirLock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock data directory: %w", err))
	}
	r.logger.Info("Index registry closed", zap.Int("closed_indexes", len(handles)))
	return errors.Join(errs...)
}
