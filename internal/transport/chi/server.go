package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/logger"
	documentuc "github.com/shaond/tax2go-search/internal/usecase/document"
	healthuc "github.com/shaond/tax2go-search/internal/usecase/health"
	searchuc "github.com/shaond/tax2go-search/internal/usecase/search"
	"github.com/shaond/tax2go-search/internal/version"
)

// Server implements the HTTP handlers of the search API.
type Server struct {
	documents *documentuc.Service
	search    *searchuc.Service
	health    *healthuc.Service
}

// NewServer creates an HTTP API server.
func NewServer(documents *documentuc.Service, search *searchuc.Service, health *healthuc.Service) *Server {
	return &Server{documents: documents, search: search, health: health}
}

// IndexDocument handles PUT /v1/documents.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc, err := documentFromRequest(&req)
	if err != nil {
		handleDomainError(w, r, domain.Invalid(err))
		return
	}

	id, err := s.documents.Put(r.Context(), mustUser(r), doc)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{
		ID:      id,
		Status:  statusSuccess,
		Message: "Document indexed successfully",
	})
}

// DeleteDocument handles DELETE /v1/documents.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	var req DeleteDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.documents.Delete(r.Context(), mustUser(r), req.ID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{
		ID:      req.ID,
		Status:  statusSuccess,
		Message: "Document deleted successfully",
	})
}

// ListDocuments handles GET /v1/documents?limit=&offset=.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	listing, err := s.documents.List(r.Context(), mustUser(r), limit, offset)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, browseResponseFrom(&listing))
}

// SearchDocuments handles POST /v1/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	params := searchuc.Params{
		Query:  req.Query,
		Offset: req.Offset,
		Tags:   req.Filters.Tags,
		Source: req.Filters.Source,
	}
	if req.Limit != nil {
		if *req.Limit <= 0 {
			handleDomainError(w, r, domain.Invalid(errors.New("limit must be greater than 0")))
			return
		}
		params.Limit = *req.Limit
	}

	page, err := s.search.Search(r.Context(), mustUser(r), params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFrom(&page))
}

// GetStats handles GET /v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	n, err := s.documents.Count(r.Context(), user)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{UserID: user.String(), NumDocuments: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
		logger.FromContext(r.Context()).Warn("health check failed", zap.Any("checks", checks))
	}
	writeJSON(w, status, HealthResponse{
		Status:      string(report.Status),
		Version:     version.Version,
		Checks:      checks,
		OpenIndexes: report.OpenIndexes,
	})
}

// decodeBody parses a JSON request body into v. On failure it writes the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, CodeBadRequest, "request body is required")
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
	}
	return false
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(fmt.Errorf("%s must be an integer", name))
	}
	return n, nil
}

// mustUser returns the identity placed by IdentityMiddleware; routes under /v1 always have one.
func mustUser(r *http.Request) tenant.ID {
	user, ok := UserFromContext(r.Context())
	if !ok {
		panic("transport: identity middleware not installed")
	}
	return user
}
