package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhadat/listing-auth/internal/client/authstate"
	"github.com/nhadat/listing-auth/internal/http/respond"
	"github.com/nhadat/listing-auth/internal/middleware"
	"github.com/nhadat/listing-auth/internal/session"
)

// NavHandler renders the navigation auth area for the current request.
type NavHandler struct {
	sessions *session.Service
}

func NewNavHandler(sessions *session.Service) *NavHandler {
	return &NavHandler{sessions: sessions}
}

// Register mounts GET /partials/nav behind the optional auth middleware.
func (h *NavHandler) Register(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		use(r, optionalAuth)
		r.Get("/partials/nav", h.handle)
	})
}

func (h *NavHandler) handle(w http.ResponseWriter, r *http.Request) {
	var identity *authstate.NavIdentity
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		profile, err := h.sessions.CurrentUser(r.Context(), id.ID)
		if err != nil {
			slog.DebugContext(r.Context(), "nav: identity lookup failed", slog.String("user_id", id.ID), slog.Any("error", err))
		}
		identity = authstate.IdentityFromProfile(profile)
	}

	html, err := authstate.RenderNav(identity).HTML()
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
