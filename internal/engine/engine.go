// Package engine ties the dashboard together: it loads the spreadsheets into
// the warehouse and renders catalog pages from it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/frame"
	"github.com/leapstack-labs/evaldash/internal/source"
	"github.com/leapstack-labs/evaldash/internal/warehouse"
)

// Engine owns the loaded data set. Read paths are safe for concurrent use;
// a refresh blocks them until the new tables are in place.
type Engine struct {
	loader  *source.Loader
	catalog *catalog.Catalog
	logger  *slog.Logger

	// Warehouse (lazy initialized)
	whPath string
	wh     *warehouse.Warehouse
	whMu   sync.Mutex

	mu          sync.RWMutex
	loaded      bool
	refreshedAt time.Time
}

// Config holds engine configuration.
type Config struct {
	// Sheets are the spreadsheets to load; defaults to source.DefaultSheets.
	Sheets []source.Sheet
	// Fetcher downloads sheet bytes.
	Fetcher source.Fetcher
	// DatabasePath is the DuckDB file (empty for in-memory).
	DatabasePath string
	// Catalog declares the pages; defaults to the embedded catalog.
	Catalog *catalog.Catalog
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// RenderedSection is one chart of a page option, ready for display.
type RenderedSection struct {
	Key   string
	Title string
	Panel *chart.Panel
}

// New creates an engine. Nothing is fetched until the first refresh or render.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("engine: fetcher is required")
	}

	sheets := cfg.Sheets
	if len(sheets) == 0 {
		sheets = source.DefaultSheets()
	}

	cat := cfg.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	logger.Debug("initializing engine", "sheets", len(sheets), "database", cfg.DatabasePath)

	return &Engine{
		loader:  source.NewLoader(source.LoaderConfig{Sheets: sheets, Fetcher: cfg.Fetcher, Logger: logger}),
		catalog: cat,
		logger:  logger,
		whPath:  cfg.DatabasePath,
	}, nil
}

// warehouse lazily opens the database.
func (e *Engine) warehouse(ctx context.Context) (*warehouse.Warehouse, error) {
	e.whMu.Lock()
	defer e.whMu.Unlock()

	if e.wh != nil {
		return e.wh, nil
	}
	e.logger.Debug("opening warehouse", "path", e.whPath)
	wh, err := warehouse.Open(ctx, warehouse.Config{Path: e.whPath, Logger: e.logger})
	if err != nil {
		return nil, err
	}
	e.wh = wh
	return wh, nil
}

// Refresh loads every sheet into the warehouse. With force the memoised
// download is dropped first.
func (e *Engine) Refresh(ctx context.Context, force bool) error {
	if force {
		e.loader.Invalidate()
	}
	tables, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sheets: %w", err)
	}
	wh, err := e.warehouse(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.loader.Sheets() {
		if err := wh.Load(ctx, s.Name, tables[s.Name]); err != nil {
			e.loaded = false
			return err
		}
	}
	e.loaded = true
	e.refreshedAt = time.Now()
	e.logger.Info("data refreshed", "tables", len(tables))
	return nil
}

// ensureLoaded refreshes once and returns with the read lock held.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.RLock()
	if e.loaded {
		return nil
	}
	e.mu.RUnlock()

	if err := e.Refresh(ctx, false); err != nil {
		return err
	}
	e.mu.RLock()
	return nil
}

// Pages returns the catalog pages in display order.
func (e *Engine) Pages() []*catalog.Page {
	return e.catalog.Pages()
}

// Page looks up a page.
func (e *Engine) Page(slug string) (*catalog.Page, error) {
	return e.catalog.Page(slug)
}

// Sections builds the chart specifications of an option without rendering them.
func (e *Engine) Sections(ctx context.Context, page, option string) ([]catalog.Section, error) {
	if _, err := e.catalog.Page(page); err != nil {
		return nil, err
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()

	return e.catalog.Build(ctx, e.wh, page, option)
}

// Render builds and renders every chart of an option.
func (e *Engine) Render(ctx context.Context, page, option string) ([]RenderedSection, error) {
	sections, err := e.Sections(ctx, page, option)
	if err != nil {
		return nil, err
	}

	out := make([]RenderedSection, 0, len(sections))
	for _, s := range sections {
		panel, err := chart.Render(s.Spec)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", s.Key, err)
		}
		out = append(out, RenderedSection{Key: s.Key, Title: s.Title, Panel: panel})
	}
	e.logger.Debug("rendered option", "page", page, "option", option, "sections", len(out))
	return out, nil
}

// Tile renders one tile of one chart; tiles are numbered in reading order.
func (e *Engine) Tile(ctx context.Context, page, option, key string, tile int) (*chart.Figure, error) {
	sections, err := e.Render(ctx, page, option)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.Key != key {
			continue
		}
		figs := s.Panel.Figures()
		if tile < 0 || tile >= len(figs) {
			return nil, fmt.Errorf("%w: %s/%d", ErrUnknownTile, key, tile)
		}
		return figs[tile], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChart, key)
}

// Query runs ad hoc SQL over the loaded sheets.
func (e *Engine) Query(ctx context.Context, query string) (*frame.Frame, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	return e.wh.Query(ctx, query)
}

// Tables lists the loaded tables.
func (e *Engine) Tables(ctx context.Context) ([]warehouse.Table, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	return e.wh.Tables(ctx)
}

// Sheets returns the configured sheets.
func (e *Engine) Sheets() []source.Sheet {
	return e.loader.Sheets()
}

// RefreshedAt returns the time of the last successful refresh.
func (e *Engine) RefreshedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.refreshedAt
}

// Warehouse returns the underlying warehouse, opening it if needed.
func (e *Engine) Warehouse(ctx context.Context) (*warehouse.Warehouse, error) {
	return e.warehouse(ctx)
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.whMu.Lock()
	defer e.whMu.Unlock()
	if e.wh != nil {
		if err := e.wh.Close(); err != nil {
			return fmt.Errorf("errors closing engine: %w", err)
		}
		e.wh = nil
	}
	return nil
}
