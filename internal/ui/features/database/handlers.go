package database

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/warehouse"
)

// Handlers provides HTTP handlers for the data browser.
type Handlers struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: eng, logger: logger}
}

// BrowserPage lists the loaded sheets.
func (h *Handlers) BrowserPage(w http.ResponseWriter, r *http.Request) {
	tables, err := h.listTables(r)
	if err != nil {
		h.logger.Error("list tables failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := PageData{Pages: h.engine.Pages(), Tables: tables, LoadedAt: h.engine.RefreshedAt()}
	if err := BrowserPage(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TableMetaSSE patches the detail of one table: its columns and first rows.
func (h *Handlers) TableMetaSSE(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	tables, err := h.listTables(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var info *TableInfo
	for i := range tables {
		if tables[i].Name == name {
			info = &tables[i]
		}
	}
	if info == nil {
		http.Error(w, fmt.Sprintf("table %s not found", name), http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	meta, err := h.tableMeta(r, *info)
	if err != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to describe %s: %w", name, err))
		return
	}
	if err := sse.PatchElementTempl(TableDetail(meta)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// listTables joins the warehouse tables with their sheet settings, in
// configuration order.
func (h *Handlers) listTables(r *http.Request) ([]TableInfo, error) {
	loaded, err := h.engine.Tables(r.Context())
	if err != nil {
		return nil, err
	}
	byName := make(map[string]warehouse.Table, len(loaded))
	for _, t := range loaded {
		byName[t.Name] = t
	}

	tables := make([]TableInfo, 0, len(loaded))
	for _, s := range h.engine.Sheets() {
		t, ok := byName[s.Name]
		if !ok {
			continue
		}
		tables = append(tables, TableInfo{
			Name:    s.Name,
			Type:    string(s.Type),
			Sheet:   s.SheetName,
			Rows:    t.RowCount,
			Columns: t.Columns,
		})
	}
	return tables, nil
}

func (h *Handlers) tableMeta(r *http.Request, info TableInfo) (TableMeta, error) {
	ctx := r.Context()
	wh, err := h.engine.Warehouse(ctx)
	if err != nil {
		return TableMeta{}, err
	}
	columns, err := wh.Schema(ctx, info.Name)
	if err != nil {
		return TableMeta{}, err
	}
	preview, err := h.engine.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", warehouse.QuoteIdent(info.Name), previewLimit))
	if err != nil {
		return TableMeta{}, err
	}

	meta := TableMeta{Name: info.Name, Rows: info.Rows, Preview: preview}
	for _, c := range columns {
		meta.Columns = append(meta.Columns, ColumnMeta{Name: c.Name, Type: c.Type, Nullable: c.Nullable})
	}
	return meta, nil
}
