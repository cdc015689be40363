package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/config"
	"github.com/nhadat/listing-auth/internal/http/handlers"
	"github.com/nhadat/listing-auth/internal/metrics"
	"github.com/nhadat/listing-auth/internal/session"
	"github.com/nhadat/listing-auth/internal/storage/memory"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, checks map[string]handlers.Pinger, opts ...func(*config.Config)) (*Server, *prometheus.Registry) {
	t.Helper()
	cfg := config.Config{
		Port:              "0",
		Environment:       config.EnvDevelopment,
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   time.Hour,
		CORSOrigins:       []string{"http://localhost:3000"},
		AuthRatePerMinute: 1,
		AuthRateBurst:     2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	tokens := auth.NewTokenManager("server-test-secret", "nhadat-test")
	sessions := session.NewService(memory.NewStore(), tokens, auth.NewBcryptHasher(bcrypt.MinCost), session.Options{
		Events: collector,
		Logger: logger,
	})

	srv := New(cfg, Deps{
		Sessions: sessions,
		Tokens:   tokens,
		Metrics:  collector,
		Gatherer: reg,
		Logger:   logger,
		Checks:   checks,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, reg
}

func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	return serveFrom(srv, method, path, body, nil)
}

func serveFrom(srv *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Origin", "http://localhost:3000")
	for k, v := range header {
		r.Header[k] = v
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, r)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, map[string]handlers.Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
	})

	rec := serve(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthDegraded(t *testing.T) {
	srv, _ := newTestServer(t, map[string]handlers.Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := serve(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestLoginIsRateLimited(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	body := `{"email":"nobody@example.com","password":"secret1"}`

	assert.Equal(t, http.StatusUnauthorized, serve(srv, http.MethodPost, "/auth/login", body).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(srv, http.MethodPost, "/auth/login", body).Code)

	rec := serve(srv, http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Refresh is not behind the limiter.
	assert.Equal(t, http.StatusUnprocessableEntity, serve(srv, http.MethodPost, "/auth/refresh-token", "{}").Code)

	rec = serve(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nhadat_auth_rate_limited_total")
	assert.Contains(t, rec.Body.String(), `event="login",outcome="invalid_credentials"`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestForwardedForIgnoredByDefault(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	body := `{"email":"nobody@example.com","password":"secret1"}`

	var codes []int
	for i := range 6 {
		h := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
		codes = append(codes, serveFrom(srv, http.MethodPost, "/auth/login", body, h).Code)
	}
	assert.Equal(t, []int{401, 401, 429, 429, 429, 429}, codes, "one socket shares one bucket whatever the header says")
}

func TestForwardedForTrustedBehindProxy(t *testing.T) {
	srv, _ := newTestServer(t, nil, func(c *config.Config) { c.TrustProxyHeaders = true })
	body := `{"email":"nobody@example.com","password":"secret1"}`

	for i := range 4 {
		h := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
		assert.Equal(t, http.StatusUnauthorized, serveFrom(srv, http.MethodPost, "/auth/login", body, h).Code)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	cases := []struct {
		method, path string
		status       int
		code         string
	}{
		{http.MethodGet, "/auth/nope", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/nope", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/auth/login", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tc := range cases {
		rec := serve(srv, tc.method, tc.path, "")
		require.Equal(t, tc.status, rec.Code, tc.path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json", tc.path)

		var env struct {
			Success bool   `json:"success"`
			Path    string `json:"path"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), tc.path)
		assert.False(t, env.Success)
		assert.Equal(t, tc.code, env.Error.Code)
		assert.Equal(t, tc.path, env.Path)
	}
}
