package dashboard

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/ui/notifier"
)

// SetupRoutes configures routes for the dashboard feature.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(eng, sessionStore, notify, logger)

	router.Get("/", handlers.Index)
	router.Route("/pages/{page}", func(r chi.Router) {
		r.Get("/", handlers.DashboardPage)
		r.Post("/option", handlers.SelectOption)
		r.Get("/updates", handlers.PageUpdates)
		r.Get("/charts/{chart}/{tile}.json", handlers.TileJSON)
		r.Get("/charts/{chart}/{tile}.png", handlers.TilePNG)
	})

	return nil
}
