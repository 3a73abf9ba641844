package tax2go

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/index"
	"github.com/shaond/tax2go-search/internal/logger"
)

// recorder reports SDK calls to the caller's slog logger and prometheus registry.
// Outcomes use the same buckets as the server-side index metrics. A nil recorder records nothing.
type recorder struct {
	log    *slog.Logger
	redact logger.Redactor
	calls  *prometheus.CounterVec
	took   *prometheus.HistogramVec
}

func newRecorder(log *slog.Logger, reg prometheus.Registerer) (*recorder, error) {
	if log == nil && reg == nil {
		return nil, nil
	}
	r := &recorder{log: log, redact: logger.NewRedactor("", false)}
	if reg == nil {
		return r, nil
	}

	var err error
	r.calls, err = registerShared(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tax2go",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK calls by operation and outcome.",
	}, []string{"operation", "status"}))
	if err != nil {
		return nil, err
	}
	r.took, err = registerShared(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tax2go",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK call latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// registerShared registers c, or returns the collector a previous Client registered under the same name.
func registerShared[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("tax2go: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("tax2go: metric already registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// done records one finished call. user is zero for client-wide calls such as ping.
func (r *recorder) done(ctx context.Context, op string, user tenant.ID, start time.Time, err error) {
	if r == nil {
		return
	}
	took := time.Since(start)
	status := index.StatusOf(err)

	if r.calls != nil {
		r.calls.WithLabelValues(op, status).Inc()
		r.took.WithLabelValues(op).Observe(took.Seconds())
	}
	if r.log == nil {
		return
	}

	attrs := make([]slog.Attr, 0, 5)
	attrs = append(attrs,
		slog.String("op", op),
		slog.String("status", status),
		slog.Duration("took", took),
	)
	if !user.IsZero() {
		attrs = append(attrs, slog.String("user_hash", r.redact.Hash(user)))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	r.log.LogAttrs(ctx, levelFor(status), "tax2go call", attrs...)
}

// levelFor maps an outcome to a log level. Caller mistakes stay at debug.
func levelFor(status string) slog.Level {
	switch status {
	case index.StatusStorageError, index.StatusError:
		return slog.LevelError
	case index.StatusClosed, index.StatusCanceled:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
