package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nhadat/listing-auth/internal/apperr"
	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/config"
	"github.com/nhadat/listing-auth/internal/http/handlers"
	"github.com/nhadat/listing-auth/internal/http/respond"
	"github.com/nhadat/listing-auth/internal/metrics"
	"github.com/nhadat/listing-auth/internal/middleware"
	"github.com/nhadat/listing-auth/internal/models"
	"github.com/nhadat/listing-auth/internal/session"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Sessions *session.Service
	Tokens   *auth.TokenManager
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// Checks are pinged by /health, keyed by dependency name.
	Checks map[string]handlers.Pinger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	limiterCfg := middleware.PerMinute(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	if deps.Metrics != nil {
		limiterCfg.OnLimited = deps.Metrics.RecordRateLimited
	}
	limiter := middleware.NewRateLimiter(limiterCfg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.New(apperr.CodeNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.New(apperr.CodeMethodNotAllowed, "Method not allowed"))
	})

	handlers.NewHealthHandler(time.Now(), deps.Checks).Register(r)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	cookies := handlers.NewCookieConfig(cfg.IsProduction(), cfg.CookieDomain, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	handlers.NewAuthHandler(deps.Sessions, cookies).Register(r, handlers.RouteGuards{
		Authenticate: middleware.Authenticate(deps.Tokens),
		RateLimit:    limiter.Middleware,
		AdminOnly:    middleware.RequireRoles(models.RoleAdmin),
	})
	handlers.NewNavHandler(deps.Sessions).Register(r, middleware.OptionalAuth(deps.Tokens))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
