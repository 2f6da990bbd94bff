package database

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

const (
	maxRows      = 1000
	queryTimeout = 30 * time.Second
)

// ResultsID is the element patched with query results.
const ResultsID = "query-results"

// QuerySignals represents the signals sent from the frontend.
type QuerySignals struct {
	SQL string `json:"sql"`
}

// QueryResult represents execution results.
type QueryResult struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool
	QueryMS   int64
	Error     string
}

// ExecuteQuerySSE runs SQL over the loaded sheets and patches the results.
func (h *Handlers) ExecuteQuerySSE(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals QuerySignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(QueryResults(QueryResult{Error: "Failed to read signals: " + err.Error()}))
		return
	}

	sse := datastar.NewSSE(w, r)
	result := h.runQuery(r.Context(), signals.SQL)
	if err := sse.PatchElementTempl(QueryResults(result)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) runQuery(ctx context.Context, sql string) QueryResult {
	query := strings.TrimSuffix(strings.TrimSpace(sql), ";")
	if query == "" {
		return QueryResult{Error: "Query cannot be empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	f, err := h.engine.Query(ctx, query)
	if err != nil {
		h.logger.Debug("query failed", "error", err)
		return QueryResult{Error: err.Error()}
	}

	result := QueryResult{Columns: f.Columns, QueryMS: time.Since(start).Milliseconds()}
	for _, row := range f.Rows {
		if len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}
		out := make([]string, len(row))
		for i, v := range row {
			out[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, out)
	}
	result.RowCount = len(result.Rows)
	return result
}
