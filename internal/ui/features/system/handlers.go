// Package system provides the data reload and health endpoints.
package system

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/ui/notifier"
)

// Status is the body of /healthz and /reload responses.
type Status struct {
	Status      string     `json:"status"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	Listeners   int        `json:"listeners"`
}

// Handlers provides HTTP handlers for the system feature.
type Handlers struct {
	engine   *engine.Engine
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: eng, notifier: notify, logger: logger}
}

// SetupRoutes configures routes for the system feature.
func SetupRoutes(router chi.Router, eng *engine.Engine, notify *notifier.Notifier, logger *slog.Logger) error {
	h := NewHandlers(eng, notify, logger)
	router.Get("/healthz", h.Health)
	router.Post("/reload", h.Reload)
	return nil
}

// Health reports liveness and when the data was last loaded.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status("ok"))
}

// Reload refetches every sheet and tells open pages to re-render.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Refresh(r.Context(), true); err != nil {
		h.logger.Error("reload failed", "error", err)
		writeJSON(w, http.StatusBadGateway, Status{Status: err.Error()})
		return
	}
	h.notifier.Broadcast(notifier.Event{RefreshedAt: h.engine.RefreshedAt(), Reason: "reload"})
	writeJSON(w, http.StatusOK, h.status("reloaded"))
}

func (h *Handlers) status(s string) Status {
	st := Status{Status: s, Listeners: h.notifier.Len()}
	if at := h.engine.RefreshedAt(); !at.IsZero() {
		st.RefreshedAt = &at
	}
	return st
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
