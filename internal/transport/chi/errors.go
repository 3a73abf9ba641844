package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/logger"
)

// ErrorCode is the machine-readable error code of an API error response.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeMissingAuth      ErrorCode = "missing_auth"
	CodeInvalidAuth      ErrorCode = "invalid_auth"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeStorageError     ErrorCode = "storage_error"
	CodeUnavailable      ErrorCode = "unavailable"
	CodeTimeout          ErrorCode = "timeout"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers is evaluated in order; the first match writes the response.
var errorHandlers = []errorHandler{
	validationHandler,
	sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
	sentinelHandler(domain.ErrClosed, http.StatusServiceUnavailable, CodeUnavailable),
	sentinelHandler(domain.ErrStorage, http.StatusInternalServerError, CodeStorageError),
	sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// validationHandler reports invalid input with its field-level detail.
// Only the part of the message starting at the sentinel is shown; wrapping context stays internal.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrInvalidInput.Error()); i >= 0 {
		msg = msg[i:]
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel text only.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// handleDomainError maps err onto an API response and logs it with the request logger.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nobody reads the response.
		log.Debug("request canceled", zap.Error(err))
		return
	}
	for _, h := range errorHandlers {
		if h(w, err) {
			if errors.Is(err, domain.ErrInvalidInput) {
				log.Debug("request rejected", zap.Error(err))
			} else {
				log.Warn("request failed", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
