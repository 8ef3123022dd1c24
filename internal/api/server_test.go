package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/config"
	"github.com/brandlens/insight-api/internal/service"
)

type stubWebsite struct {
	result service.WebsiteResult
	called int
}

func (s *stubWebsite) Analyze(ctx context.Context, url string) service.WebsiteResult {
	s.called++
	s.result.URL = url
	return s.result
}

type stubInstagram struct {
	result      service.InstagramResult
	gotUsername string
}

func (s *stubInstagram) Analyze(ctx context.Context, username string) service.InstagramResult {
	s.gotUsername = username
	s.result.Username = username
	return s.result
}

type stubYouTube struct {
	result service.YouTubeResult
}

func (s *stubYouTube) Analyze(ctx context.Context, channel string) service.YouTubeResult {
	return s.result
}

func testConfig(authEnabled bool) config.Config {
	cfg := config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.RequestTimeout = 5
	cfg.Auth.Enabled = authEnabled
	cfg.Auth.APIKey = "secret"
	return cfg
}

func newTestServer(authEnabled bool) (*Server, *stubWebsite, *stubInstagram) {
	website := &stubWebsite{result: service.WebsiteResult{AnalyzedAt: time.Now().UTC()}}
	instagram := &stubInstagram{result: service.InstagramResult{AnalyzedAt: time.Now().UTC()}}
	analyzers := Analyzers{
		Website:   website,
		Instagram: instagram,
		YouTube:   &stubYouTube{},
	}
	return NewServer(analyzers, testConfig(authEnabled), zap.NewNop()), website, instagram
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(true)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	srv, _, _ := newTestServer(true)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeWebsite_OK(t *testing.T) {
	srv, website, _ := newTestServer(true)
	rec := postJSON(t, srv.Handler(), "/v1/analyze/website",
		map[string]string{"url": "https://acme.example"},
		map[string]string{"X-API-Key": "secret"},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, website.called)

	var result service.WebsiteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "https://acme.example", result.URL)
}

func TestAnalyzeWebsite_MissingAPIKey(t *testing.T) {
	srv, website, _ := newTestServer(true)
	rec := postJSON(t, srv.Handler(), "/v1/analyze/website",
		map[string]string{"url": "https://acme.example"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, website.called)
}

func TestAnalyzeWebsite_APIKeyViaQueryParam(t *testing.T) {
	srv, _, _ := newTestServer(true)
	body, _ := json.Marshal(map[string]string{"url": "https://acme.example"})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze/website?api_key=secret", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeWebsite_InvalidJSON(t *testing.T) {
	srv, _, _ := newTestServer(false)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze/website", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeWebsite_InvalidURL(t *testing.T) {
	srv, website, _ := newTestServer(false)
	cases := []string{"", "notaurl", "ftp://example.com", "//missing-scheme"}
	for _, raw := range cases {
		rec := postJSON(t, srv.Handler(), "/v1/analyze/website", map[string]string{"url": raw}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
	assert.Zero(t, website.called)
}

func TestAnalyzeInstagram_StripsAtPrefix(t *testing.T) {
	srv, _, instagram := newTestServer(false)
	rec := postJSON(t, srv.Handler(), "/v1/analyze/instagram", map[string]string{"username": "@acme"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", instagram.gotUsername)
}

func TestAnalyzeInstagram_InvalidUsername(t *testing.T) {
	srv, _, _ := newTestServer(false)
	for _, name := range []string{"", "has space", "slash/name", "q?mark"} {
		rec := postJSON(t, srv.Handler(), "/v1/analyze/instagram", map[string]string{"username": name}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestAnalyzeYouTube_RequiresChannel(t *testing.T) {
	srv, _, _ := newTestServer(false)
	rec := postJSON(t, srv.Handler(), "/v1/analyze/youtube", map[string]string{"channel": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv.Handler(), "/v1/analyze/youtube", map[string]string{"channel": "@acmelabs"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	srv, _, _ := newTestServer(false)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAcquisitionFailureReturns422(t *testing.T) {
	// Defaulted sections are invisible at the transport level, but a failed
	// acquisition surfaces as 422 with the error-tagged result body.
	srv, website, _ := newTestServer(false)
	website.result.Error = "fetch failed after 3 attempts"

	rec := postJSON(t, srv.Handler(), "/v1/analyze/website", map[string]string{"url": "https://down.example"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var result service.WebsiteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "fetch failed after 3 attempts", result.Error)
	assert.Equal(t, "https://down.example", result.URL)
}
