package database

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/evaldash/internal/engine"
)

// SetupRoutes registers the data browser routes.
func SetupRoutes(router chi.Router, eng *engine.Engine, logger *slog.Logger) error {
	handlers := NewHandlers(eng, logger)

	router.Get("/data", handlers.BrowserPage)
	router.Get("/data/tables/{table}", handlers.TableMetaSSE) // columns and preview
	router.Post("/data/query", handlers.ExecuteQuerySSE)

	return nil
}
