package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/snapshot"
	"github.com/leapstack-labs/evaldash/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the dashboard feature.
type Handlers struct {
	engine       *engine.Engine
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger

	// latest option per session and page, for streams opened before a change
	selections *selectionSet
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		engine:       eng,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		selections:   newSelectionSet(),
	}
}

// Index redirects to the first page.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	pages := h.engine.Pages()
	if len(pages) == 0 {
		http.Error(w, "no pages configured", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, pagePath(pages[0].Slug), http.StatusFound)
}

// DashboardPage renders a page with the remembered or default option.
func (h *Handlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "page")
	page, err := h.engine.Page(slug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sess := h.session(r)
	option := h.selectOption(page, r.URL.Query().Get("option"), storedOption(sess, slug))

	panel, err := h.buildPanelData(r.Context(), slug, option)
	if err != nil {
		h.logger.Error("render page failed", "page", slug, "option", option, "session", sessionID(sess), "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if sess.IsNew {
		if err := sess.Save(r, w); err != nil {
			h.logger.Warn("failed to save session", "error", err)
		}
	}

	data := PageData{Pages: h.engine.Pages(), Page: page, Panel: panel}
	if err := DashboardPage(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SelectOption stores the chosen option and patches the panel.
func (h *Handlers) SelectOption(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "page")
	page, err := h.engine.Page(slug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var signals OptionSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opt, err := page.Option(signals.Option)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// the cookie must be written before the stream starts
	sess := h.session(r)
	sess.Values[optionKey(slug)] = opt.Name
	if err := sess.Save(r, w); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}
	h.selections.set(selectionKey(sessionID(sess), slug), opt.Name)
	h.logger.Debug("option selected", "page", slug, "option", opt.Name, "session", sessionID(sess))

	sse := datastar.NewSSE(w, r)
	if err := h.sendPanel(r.Context(), sse, slug, opt.Name); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// PageUpdates is the long-lived SSE endpoint of a page. It re-renders the
// panel whenever the data set is reloaded.
func (h *Handlers) PageUpdates(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "page")
	page, err := h.engine.Page(slug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sess := h.session(r)
	key := selectionKey(sessionID(sess), slug)
	h.selections.open(key)
	defer h.selections.close(key)

	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			h.logger.Debug("pushing refreshed panel", "page", slug, "reason", ev.Reason, "session", sessionID(sess))
			option := h.selectOption(page, h.selections.get(key), storedOption(sess, slug))
			if err := h.sendPanel(ctx, sse, slug, option); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// TileJSON writes one tile's figure as Plotly JSON.
func (h *Handlers) TileJSON(w http.ResponseWriter, r *http.Request) {
	fig, ok := h.tileFigure(w, r)
	if !ok {
		return
	}
	body, err := fig.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// TilePNG writes one tile as a static PNG image.
func (h *Handlers) TilePNG(w http.ResponseWriter, r *http.Request) {
	fig, ok := h.tileFigure(w, r)
	if !ok {
		return
	}
	img, err := snapshot.Bytes(fig)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q",
		fmt.Sprintf("%s-%s.png", chi.URLParam(r, "chart"), chi.URLParam(r, "tile"))))
	_, _ = w.Write(img)
}

func (h *Handlers) tileFigure(w http.ResponseWriter, r *http.Request) (*chart.Figure, bool) {
	slug := chi.URLParam(r, "page")
	page, err := h.engine.Page(slug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	tile, err := strconv.Atoi(chi.URLParam(r, "tile"))
	if err != nil {
		http.Error(w, "invalid tile index", http.StatusBadRequest)
		return nil, false
	}
	option := h.selectOption(page, r.URL.Query().Get("option"), storedOption(h.session(r), slug))

	fig, err := h.engine.Tile(r.Context(), slug, option, chi.URLParam(r, "chart"), tile)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return nil, false
	}
	return fig, true
}

// selectOption picks the first valid option among the requested and stored
// names, falling back to the page default.
func (h *Handlers) selectOption(page *catalog.Page, candidates ...string) string {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if opt, err := page.Option(name); err == nil {
			return opt.Name
		}
	}
	opt, err := page.Option("")
	if err != nil {
		return ""
	}
	return opt.Name
}

func (h *Handlers) buildPanelData(ctx context.Context, slug, option string) (PanelData, error) {
	sections, err := h.engine.Render(ctx, slug, option)
	if err != nil {
		return PanelData{}, err
	}
	return PanelData{
		Slug:        slug,
		Option:      option,
		Sections:    sections,
		RefreshedAt: h.engine.RefreshedAt(),
	}, nil
}

func (h *Handlers) sendPanel(ctx context.Context, sse *datastar.ServerSentEventGenerator, slug, option string) error {
	panel, err := h.buildPanelData(ctx, slug, option)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(Panel(panel))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownPage),
		errors.Is(err, catalog.ErrUnknownOption),
		errors.Is(err, engine.ErrUnknownChart),
		errors.Is(err, engine.ErrUnknownTile):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrUnsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
