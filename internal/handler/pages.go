package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/storelink/internal/repository"
)

// PageHandler serves pages that need no service: the landing page and the
// health check.
type PageHandler struct {
	render *Renderer
	db     repository.Pinger
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(render *Renderer, db repository.Pinger, logger *slog.Logger) *PageHandler {
	return &PageHandler{render: render, db: db, logger: logger}
}

// HandleLanding renders the public home page.
//
// HTTP: GET /
func (h *PageHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "landing", &PageData{})
}

// HandleHealth reports 200 when the database answers a ping.
//
// HTTP: GET /healthz
func (h *PageHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
		return
	}
	_, _ = w.Write([]byte("ok"))
}
