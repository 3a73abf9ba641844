// Package index owns the per-user full-text indexes: their on-disk layout,
// lifecycle, write serialization and query execution.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
	"github.com/shaond/tax2go-search/internal/metrics"
)

// Operation names used in metrics and logs.
const (
	opPut    = "put"
	opDelete = "delete"
	opList   = "list"
	opSearch = "search"
	opStats  = "stats"
)

// Config configures a Manager.
type Config struct {
	DataDir           string
	WriterMemoryBytes uint64
	Logger            *zap.Logger
	Redactor          logger.Redactor
}

// Manager is the entry point for every per-user index operation.
// All methods are safe for concurrent use.
type Manager struct {
	registry *Registry
	logger   *zap.Logger
	redact   logger.Redactor

	now   func() time.Time
	newID func() string
}

// NewManager locks cfg.DataDir and returns a ready Manager.
// Indexes are opened lazily on first use.
func NewManager(cfg Config) (*Manager, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg, err := NewRegistry(cfg.DataDir, Options{WriterMemoryBytes: cfg.WriterMemoryBytes}, log.Named("registry"), cfg.Redactor)
	if err != nil {
		return nil, err
	}
	return &Manager{
		registry: reg,
		logger:   log,
		redact:   cfg.Redactor,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Close flushes every open index and releases the data directory.
func (m *Manager) Close() error {
	if err := m.registry.Close(); err != nil {
		return fmt.Errorf("close index manager: %w", err)
	}
	return nil
}

// Ping reports whether the data directory is usable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.registry.Ping(ctx)
}

// OpenIndexes returns how many per-user indexes are currently open.
func (m *Manager) OpenIndexes() int {
	return m.registry.Len()
}

// HasIndex reports whether user already has an index. Unlike Stats it never creates one.
func (m *Manager) HasIndex(user tenant.ID) (bool, error) {
	return m.registry.Exists(user)
}

func (m *Manager) resolve(ctx context.Context, user tenant.ID) (*Handle, error) {
	h, err := m.registry.Resolve(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("resolve index: %w", err)
	}
	return h, nil
}

// observe records the outcome of one operation and logs storage faults.
func (m *Manager) observe(op string, user tenant.ID, start time.Time, err error) {
	status := StatusOf(err)
	metrics.IndexOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.IndexOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if status == StatusStorageError {
		fields := append(m.redact.Fields(user), zap.String("operation", op), zap.Error(err))
		m.logger.Error("Index operation failed", fields...)
	}
}

// Operation outcome buckets shared by metrics labels and SDK reporting.
const (
	StatusOK           = "ok"
	StatusInvalid      = "invalid"
	StatusStorageError = "storage_error"
	StatusClosed       = "closed"
	StatusCanceled     = "canceled"
	StatusError        = "error"
)

// StatusOf buckets err into a low-cardinality outcome label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, domain.ErrInvalidInput):
		return StatusInvalid
	case errors.Is(err, domain.ErrStorage):
		return StatusStorageError
	case errors.Is(err, domain.ErrClosed):
		return StatusClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}
