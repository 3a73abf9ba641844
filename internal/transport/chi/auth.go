package chi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
)

// exemptPaths are routes that bypass authentication. The console page itself carries no data.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
	"/ui":      {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys = append(validKeys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled: pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeMissingAuth, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeInvalidAuth, "authorization header must use Bearer scheme")
				return
			}

			if !keyMatches(validKeys, []byte(auth[len(bearerPrefix):])) {
				writeError(w, http.StatusUnauthorized, CodeInvalidAuth, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyMatches(valid [][]byte, token []byte) bool {
	match := 0
	for _, k := range valid {
		match |= subtle.ConstantTimeCompare(k, token)
	}
	return match == 1
}

type userCtxKey struct{}

// UserFromContext returns the identity set by IdentityMiddleware.
func UserFromContext(ctx context.Context) (tenant.ID, bool) {
	id, ok := ctx.Value(userCtxKey{}).(tenant.ID)
	return id, ok
}

// ContextWithUser stores an authenticated identity in the context.
func ContextWithUser(ctx context.Context, id tenant.ID) context.Context {
	return context.WithValue(ctx, userCtxKey{}, id)
}

// IdentityMiddleware reads the user identity from header and rejects requests without a valid one.
// The identity is never taken from request bodies.
func IdentityMiddleware(header string, redact logger.Redactor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				writeError(w, http.StatusUnauthorized, CodeMissingAuth, "missing "+header+" header")
				return
			}
			user, err := tenant.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeInvalidAuth, header+" must be a canonical UUID")
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = logger.With(ctx, redact.Fields(user)...)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
