package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/config"
	"github.com/shaond/tax2go-search/internal/index"
	logpkg "github.com/shaond/tax2go-search/internal/logger"
	"github.com/shaond/tax2go-search/internal/metrics"
	chiTransport "github.com/shaond/tax2go-search/internal/transport/chi"
	documentuc "github.com/shaond/tax2go-search/internal/usecase/document"
	healthuc "github.com/shaond/tax2go-search/internal/usecase/health"
	searchuc "github.com/shaond/tax2go-search/internal/usecase/search"
	"github.com/shaond/tax2go-search/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tax2go-search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", opts.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.Bool("auth_enabled", len(cfg.Auth.APIKeys) > 0),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RequestsPerSec),
	)

	// Register index metrics explicitly (no init())
	metrics.RegisterIndexMetrics()

	redact := logpkg.NewRedactor(cfg.Logging.UserHashSalt, cfg.Logging.IncludeUserID)
	manager, err := index.NewManager(index.Config{
		DataDir:           cfg.Storage.DataDir,
		WriterMemoryBytes: cfg.Storage.WriterMemoryBytes(),
		Logger:            logger.Named("index"),
		Redactor:          redact,
	})
	if err != nil {
		logger.Error("Failed to open data directory", zap.Error(err))
		return fmt.Errorf("open index manager: %w", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Error("Error closing indexes", zap.Error(err))
		}
	}()

	docSvc := documentuc.New(manager).WithPagination(cfg.Search.DefaultBrowseLimit)
	searchSvc := searchuc.New(manager).
		WithDefaultLimit(cfg.Search.DefaultLimit).
		WithSlowQueryThreshold(cfg.Search.SlowQueryThreshold())
	healthSvc := healthuc.New(manager, manager)

	server := chiTransport.NewServer(docSvc, searchSvc, healthSvc)
	router, err := chiTransport.NewRouter(server, logger, routerConfig(&cfg, redact))
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	addr := cfg.HTTP.ListenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		logger.Error("HTTP server error", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	// Drain in-flight requests before the deferred manager.Close flushes the indexes.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func routerConfig(cfg *config.Config, redact logpkg.Redactor) chiTransport.RouterConfig {
	return chiTransport.RouterConfig{
		APIKeys:    cfg.Auth.APIKeys,
		UserHeader: cfg.Auth.UserHeader,
		Redactor:   redact,
		RateLimit: chiTransport.RateLimitConfig{
			RequestsPerSec: cfg.RateLimit.RequestsPerSec,
			Burst:          cfg.RateLimit.Burst,
			MaxUsers:       cfg.RateLimit.MaxUsers,
		},
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,

		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		WebUIEnabled:       cfg.HTTP.WebUIEnabled,
	}
}
