package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nhadat/listing-auth/internal/http/respond"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns uptime and the status of backing services.
type HealthHandler struct {
	startedAt time.Time
	checks    map[string]Pinger
}

// NewHealthHandler creates a health endpoint handler. Nil checks are ignored.
func NewHealthHandler(startedAt time.Time, checks map[string]Pinger) *HealthHandler {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{startedAt: startedAt, checks: live}
}

// Register wires the handler into the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check failed",
				slog.String("dependency", name),
				slog.Any("error", err),
			)
			deps[name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{
		"status": status,
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	respond.Result(w, r, code, code == http.StatusOK, "", body)
}
