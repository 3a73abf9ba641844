package chi

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shaond/tax2go-search/internal/logger"
	"github.com/shaond/tax2go-search/internal/metrics"
)

// RateLimitConfig configures RateLimitMiddleware.
type RateLimitConfig struct {
	RequestsPerSec float64
	Burst          int
	MaxUsers       int
}

// RateLimitMiddleware applies a token bucket per user identity.
// Limiters of the least recently seen users are evicted once MaxUsers is reached.
// Must run after IdentityMiddleware. A non-positive rate disables limiting.
func RateLimitMiddleware(cfg RateLimitConfig) (func(http.Handler) http.Handler, error) {
	if cfg.RequestsPerSec <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RequestsPerSec))
	}
	limiters, err := lru.New[string, *rate.Limiter](max(cfg.MaxUsers, 1))
	if err != nil {
		return nil, fmt.Errorf("create limiter table: %w", err)
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSec)))

	limiterFor := func(key string) *rate.Limiter {
		if l, ok := limiters.Get(key); ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst)
		if prev, ok, _ := limiters.PeekOrAdd(key, l); ok {
			return prev
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !limiterFor(user.String()).Allow() {
				metrics.RateLimitedTotal.Inc()
				logger.FromContext(r.Context()).Debug("rate limited", zap.Float64("rps", cfg.RequestsPerSec))
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
