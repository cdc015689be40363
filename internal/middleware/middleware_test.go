package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/nhadat/listing-auth/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowedOrigin(t *testing.T) {
	h := CORS([]string{"https://nhadat.vn/"})(okHandler)

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set("Origin", "https://NHADAT.vn")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "https://NHADAT.vn", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSWildcardNeverAllowsCredentials(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	r.Header.Set("Origin", "https://evil.example")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	// A listed origin next to the wildcard still gets credentials.
	h = CORS([]string{"*", "http://localhost:3000"})(okHandler)
	r = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	limited := 0
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:      rate.Limit(1.0 / 60.0),
		Burst:     2,
		OnLimited: func(string) { limited++ },
	})
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	serve := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:5001").Code)

	rec := serve("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"TOO_MANY_REQUESTS"`)
	assert.Equal(t, 1, limited)

	assert.Equal(t, http.StatusOK, serve("10.0.0.2:5000").Code, "other clients have their own bucket")
	assert.Equal(t, 2, rl.LimiterCount())
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(PerMinute(20, 10))
	defer rl.Stop()

	rl.limiterFor("10.0.0.1")
	require.Equal(t, 1, rl.LimiterCount())

	rl.cleanup(time.Now().Add(time.Minute))
	assert.Equal(t, 1, rl.LimiterCount())

	rl.cleanup(time.Now().Add(11 * time.Minute))
	assert.Equal(t, 0, rl.LimiterCount())

	rl.Stop()
	rl.Stop()
}

func TestLoggingLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(http.StatusUnauthorized), entry["status"])
	assert.Equal(t, "/auth/me", entry["path"])
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	r := chi.NewRouter()
	r.Use(Metrics(c))
	r.Get("/auth/users/{id}", okHandler)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/users/"+id, nil))
	}

	count, err := testutil.GatherAndCount(reg, "nhadat_auth_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both requests share one route label")
}
