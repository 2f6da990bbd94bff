// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/evaldash/internal/engine"
	dashboardFeature "github.com/leapstack-labs/evaldash/internal/ui/features/dashboard"
	databaseFeature "github.com/leapstack-labs/evaldash/internal/ui/features/database"
	systemFeature "github.com/leapstack-labs/evaldash/internal/ui/features/system"
	"github.com/leapstack-labs/evaldash/internal/ui/notifier"
	"github.com/leapstack-labs/evaldash/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	// Static assets
	router.Handle("/static/*", resources.Handler(logger))

	// Feature routes
	if err := systemFeature.SetupRoutes(router, eng, notify, logger); err != nil {
		return err
	}

	if err := dashboardFeature.SetupRoutes(router, eng, sessionStore, notify, logger); err != nil {
		return err
	}

	if err := databaseFeature.SetupRoutes(router, eng, logger); err != nil {
		return err
	}

	return nil
}
