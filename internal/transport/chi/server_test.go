package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/index"
	"github.com/shaond/tax2go-search/internal/logger"
	documentuc "github.com/shaond/tax2go-search/internal/usecase/document"
	healthuc "github.com/shaond/tax2go-search/internal/usecase/health"
	searchuc "github.com/shaond/tax2go-search/internal/usecase/search"
)

const testAPIKey = "test-key"

type testAPI struct {
	t       *testing.T
	handler http.Handler
	manager *index.Manager
}

func newTestAPI(t *testing.T, mutate ...func(*RouterConfig)) *testAPI {
	t.Helper()
	redact := logger.NewRedactor("test", false)
	m, err := index.NewManager(index.Config{DataDir: t.TempDir(), Redactor: redact})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	srv := NewServer(documentuc.New(m), searchuc.New(m), healthuc.New(m, m))
	cfg := RouterConfig{
		APIKeys:        []string{testAPIKey},
		UserHeader:     "X-User-Id",
		Redactor:       redact,
		MaxBodyBytes:   1 << 20,
		RequestTimeout: 10 * time.Second,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	h, err := NewRouter(srv, nil, cfg)
	require.NoError(t, err)
	return &testAPI{t: t, handler: h, manager: m}
}

func (a *testAPI) do(method, path string, user tenant.ID, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if !user.IsZero() {
		req.Header.Set("X-User-Id", user.String())
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decodeInto[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func indexBody(id, title, body string, tags []string, source string) map[string]any {
	return map[string]any{
		"id":       id,
		"title":    title,
		"body":     body,
		"metadata": map[string]any{"tags": tags, "source": source},
	}
}

func TestServer_IndexSearchDelete(t *testing.T) {
	api := newTestAPI(t)
	u1, u2 := tenant.New(), tenant.New()

	rr := api.do(http.MethodPut, "/v1/documents", u1, indexBody("d1", "Rust guide", "ownership and borrowing", []string{"lang"}, "blog"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	op := decodeInto[OperationResponse](t, rr)
	assert.Equal(t, OperationResponse{ID: "d1", Status: "success", Message: "Document indexed successfully"}, op)

	rr = api.do(http.MethodPut, "/v1/documents", u2, indexBody("d1", "Go guide", "goroutines and channels", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(http.MethodPost, "/v1/search", u1, map[string]any{"query": "rust"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeInto[SearchResponse](t, rr)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "d1", res.Results[0].ID)
	assert.Equal(t, "Rust guide", res.Results[0].Title)
	assert.Equal(t, []string{"lang"}, res.Results[0].Tags)
	require.NotNil(t, res.Results[0].Source)
	assert.Equal(t, "blog", *res.Results[0].Source)
	assert.NotNil(t, res.Results[0].CreatedAt)
	assert.Positive(t, res.Results[0].Score)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "rust", res.Query)

	// u2 cannot see u1's terms.
	rr = api.do(http.MethodPost, "/v1/search", u2, map[string]any{"query": "rust"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeInto[SearchResponse](t, rr).Results)

	rr = api.do(http.MethodDelete, "/v1/documents", u1, map[string]any{"id": "d1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, OperationResponse{ID: "d1", Status: "success", Message: "Document deleted successfully"},
		decodeInto[OperationResponse](t, rr))

	rr = api.do(http.MethodGet, "/v1/stats", u1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, StatsResponse{UserID: u1.String(), NumDocuments: 0}, decodeInto[StatsResponse](t, rr))

	rr = api.do(http.MethodGet, "/v1/stats", u2, nil)
	assert.Equal(t, 1, decodeInto[StatsResponse](t, rr).NumDocuments)
}

func TestServer_IndexAssignsID(t *testing.T) {
	api := newTestAPI(t)
	user := tenant.New()

	rr := api.do(http.MethodPut, "/v1/documents", user, map[string]any{"title": "t", "body": "b"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decodeInto[OperationResponse](t, rr).ID)
}

func TestServer_ListDocuments(t *testing.T) {
	api := newTestAPI(t)
	user := tenant.New()
	for i := range 5 {
		rr := api.do(http.MethodPut, "/v1/documents", user, indexBody(fmt.Sprintf("doc-%d", i), "t", "b", nil, ""))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := api.do(http.MethodGet, "/v1/documents?limit=2&offset=1", user, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decodeInto[BrowseResponse](t, rr)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "doc-1", page.Documents[0].ID)
	assert.Equal(t, "doc-2", page.Documents[1].ID)
	assert.Nil(t, page.Documents[0].Source)
	assert.Equal(t, []string{}, page.Documents[0].Tags)

	rr = api.do(http.MethodGet, "/v1/documents?limit=abc", user, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	user := tenant.New()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		want   ErrorCode
	}{
		{"malformed json", http.MethodPost, "/v1/search", "{", http.StatusBadRequest, CodeBadRequest},
		{"empty body", http.MethodPut, "/v1/documents", "", http.StatusBadRequest, CodeBadRequest},
		{"empty query", http.MethodPost, "/v1/search", map[string]any{"query": "  "}, http.StatusBadRequest, CodeValidationFailed},
		{"zero limit", http.MethodPost, "/v1/search", map[string]any{"query": "q", "limit": 0}, http.StatusBadRequest, CodeValidationFailed},
		{"limit too big", http.MethodPost, "/v1/search", map[string]any{"query": "q", "limit": 1000}, http.StatusBadRequest, CodeValidationFailed},
		{"negative offset", http.MethodPost, "/v1/search", map[string]any{"query": "q", "offset": -1}, http.StatusBadRequest, CodeValidationFailed},
		{"missing title", http.MethodPut, "/v1/documents", map[string]any{"body": "b"}, http.StatusBadRequest, CodeValidationFailed},
		{"empty delete id", http.MethodDelete, "/v1/documents", map[string]any{"id": ""}, http.StatusBadRequest, CodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(tc.method, tc.path, user, tc.body)
			require.Equal(t, tc.code, rr.Code, rr.Body.String())
			assert.Equal(t, tc.want, decodeInto[ErrorResponse](t, rr).Code)
		})
	}
}

func TestServer_RequiresIdentity(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(http.MethodGet, "/v1/stats", tenant.ID{}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, CodeMissingAuth, decodeInto[ErrorResponse](t, rr).Code)
	assert.Zero(t, api.manager.OpenIndexes())
}

func TestServer_RequiresAPIKey(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", http.NoBody)
	req.Header.Set("X-User-Id", tenant.New().String())
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServer_BodyTooLarge(t *testing.T) {
	api := newTestAPI(t, func(c *RouterConfig) { c.MaxBodyBytes = 64 })

	rr := api.do(http.MethodPut, "/v1/documents", tenant.New(), indexBody("d", "t", strings.Repeat("x", 1024), nil, ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestServer_Health(t *testing.T) {
	api := newTestAPI(t)
	_ = api.do(http.MethodGet, "/v1/stats", tenant.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	h := decodeInto[HealthResponse](t, rr)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Checks["storage"])
	assert.Equal(t, 1, h.OpenIndexes)

	require.NoError(t, api.manager.Close())
	rr = httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServer_ClosedManagerIsUnavailable(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.manager.Close())

	rr := api.do(http.MethodPost, "/v1/search", tenant.New(), map[string]any{"query": "q"})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, CodeUnavailable, decodeInto[ErrorResponse](t, rr).Code)
}

func TestServer_RequestDeadline(t *testing.T) {
	h := requestDeadline(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		handleDomainError(w, r, r.Context().Err())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
}

func TestServer_Metrics(t *testing.T) {
	api := newTestAPI(t)
	_ = api.do(http.MethodGet, "/v1/stats", tenant.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tax2go_http_requests_total")
}

func TestHandleDomainError_CanceledClientGetsNoBody(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody).WithContext(ctx)
	rr := httptest.NewRecorder()

	handleDomainError(rr, req, ctx.Err())
	assert.Zero(t, rr.Body.Len())
}

func TestAPI_WebUI(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantStatus int
	}{
		{"enabled", true, http.StatusOK},
		{"disabled", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(c *RouterConfig) { c.WebUIEnabled = tt.enabled })

			// No bearer token: the page is served without credentials.
			rr := httptest.NewRecorder()
			api.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui", http.NoBody))

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.enabled {
				assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
				assert.Contains(t, rr.Body.String(), "/v1/search")
			}
		})
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	api := newTestAPI(t, func(c *RouterConfig) { c.CORSAllowedOrigins = []string{"*"} })

	req := httptest.NewRequest(http.MethodOptions, "/v1/search", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-User-Id, Content-Type")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	simple := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	simple.Header.Set("Origin", "http://example.com")
	rr = httptest.NewRecorder()
	api.handler.ServeHTTP(rr, simple)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_CORSDisabled(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/search", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
