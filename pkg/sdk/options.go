package tax2go

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dataDir           string
	writerMemoryBytes uint64

	defaultLimit       int
	defaultBrowseLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDataDir sets the directory holding every user's index. Required.
func WithDataDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dataDir = dir
	})
}

// WithWriterMemory sets the per-index write buffer budget in bytes.
// Default: 50 MiB.
func WithWriterMemory(bytes uint64) Option {
	return optionFunc(func(c *clientConfig) {
		c.writerMemoryBytes = bytes
	})
}

// WithDefaultLimits sets the page sizes used when a search or list call passes zero.
// Defaults: 10 for search, 50 for list.
func WithDefaultLimits(search, list int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = search
		c.defaultBrowseLimit = list
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
