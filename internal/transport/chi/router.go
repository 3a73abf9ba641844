package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/logger"
	"github.com/shaond/tax2go-search/internal/metrics"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	APIKeys        []string
	UserHeader     string
	Redactor       logger.Redactor
	RateLimit      RateLimitConfig
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	// CORSAllowedOrigins lists origins allowed by CORS; "*" allows any. Empty disables CORS.
	CORSAllowedOrigins []string
	// WebUIEnabled mounts the embedded console at /ui.
	WebUIEnabled bool
}

// NewRouter mounts the API handlers of s with the service middleware chain.
func NewRouter(s *Server, log *zap.Logger, cfg RouterConfig) (*gochi.Mux, error) {
	if log == nil {
		log = zap.NewNop()
	}
	limit, err := RateLimitMiddleware(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := gochi.NewRouter()
	r.Use(JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(log))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	}
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.WebUIEnabled {
		r.Get("/ui", WebUI)
	}

	r.Route("/v1", func(r gochi.Router) {
		r.Use(IdentityMiddleware(cfg.UserHeader, cfg.Redactor))
		r.Use(limit)
		if cfg.MaxBodyBytes > 0 {
			r.Use(chiMiddleware.RequestSize(cfg.MaxBodyBytes))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(requestDeadline(cfg.RequestTimeout))
		}

		r.Put("/documents", s.IndexDocument)
		r.Delete("/documents", s.DeleteDocument)
		r.Get("/documents", s.ListDocuments)
		r.Post("/search", s.SearchDocuments)
		r.Get("/stats", s.GetStats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r, nil
}

// corsMiddleware answers preflight requests before authentication runs.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	})
}

// requestDeadline bounds the handler context. Handlers map the expiry to 504 themselves.
func requestDeadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// JSONRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func JSONRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(ErrorResponse{
						Code:    CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func WideEventMiddleware(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line. The user identity is logged by handlers as a hash only.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
