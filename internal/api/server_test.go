package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/backend"
	"github.com/scrapable/preview-service/internal/config"
	"github.com/scrapable/preview-service/internal/credential"
	"github.com/scrapable/preview-service/internal/orchestrator"
	"github.com/scrapable/preview-service/internal/preview"
	"github.com/scrapable/preview-service/internal/transport/memory"
)

type fakeRunner struct {
	result preview.Result
	err    error
}

func (f *fakeRunner) RequestPreview(_ context.Context, _ string) (preview.Result, error) {
	return f.result, f.err
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5},
	}
}

func newTestServer(t *testing.T, runner PreviewRunner, cfg config.Config) *Server {
	t.Helper()
	return NewServer(func() PreviewRunner { return runner }, cfg, zap.NewNop())
}

func postPreview(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/previews", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreatePreviewSuccess(t *testing.T) {
	runner := &fakeRunner{
		result: preview.Result{
			Kind: preview.ResultSynchronous,
			Elements: []preview.Element{
				{Selector: ".price", Tag: "span"},
				{Selector: ".title", Tag: "h1"},
			},
			TierInfo: &preview.TierInfo{TierUsed: 2, TierName: "Browser Render", CostPerPage: 0.02},
		},
	}
	s := newTestServer(t, runner, testConfig())

	rec := postPreview(t, s, `{"url":"https://example.com/products"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Elements, 2)
	require.NotNil(t, resp.TierInfo)
	require.Equal(t, "Browser Render", resp.TierInfo.TierName)
	require.Contains(t, resp.Message, "$0.0200")
}

// TestCreatePreviewEndToEnd runs the full stack: real orchestrator, real
// backend client against an httptest server, memory transport.
func TestCreatePreviewEndToEnd(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preview-url" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[{"selector":"h1"},{"selector":".price"}],"tier_info":{"tier_used":1,"tier_name":"HTTP Fetch","cost_per_page":0.001}}`))
	}))
	defer backendSrv.Close()

	client := backend.New(backend.Config{BaseURL: backendSrv.URL}, zap.NewNop())
	channel := memory.NewChannel()
	s := NewServer(func() PreviewRunner {
		return orchestrator.New(client, credential.NewStatic("tok"), channel)
	}, testConfig(), zap.NewNop())

	rec := postPreview(t, s, `{"url":"https://example.com/products"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Elements, 2)
	require.NotContains(t, resp.Message, "$")

	rec = postPreview(t, s, `{"url":"not a url"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePreviewErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", preview.ErrInvalidInput, http.StatusBadRequest},
		{"unauthenticated", preview.ErrUnauthenticated, http.StatusUnauthorized},
		{"enqueue failure", preview.ErrAsyncEnqueue, http.StatusBadGateway},
		{"task failure", preview.ErrAsyncTask, http.StatusBadGateway},
		{"superseded", preview.ErrSuperseded, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, &fakeRunner{err: tc.err}, testConfig())
			rec := postPreview(t, s, `{"url":"https://example.com"}`)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCreatePreviewRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, testConfig())
	rec := postPreview(t, s, `{"url":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, testConfig())
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	s := newTestServer(t, &fakeRunner{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
