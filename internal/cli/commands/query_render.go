package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/evaldash/internal/cli/output"
	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

func renderFrame(w io.Writer, f *frame.Frame, format string) error {
	switch format {
	case "json":
		return renderJSON(w, f)
	case "csv":
		return renderCSV(w, f)
	case "md", "markdown":
		return renderMarkdown(w, f)
	default:
		return renderTable(w, f)
	}
}

func frameRows(f *frame.Frame) [][]any {
	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = formatValue(v)
		}
		rows[i] = row
	}
	return rows
}

func renderTable(w io.Writer, f *frame.Frame) error {
	if f.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := output.NewTable(w, f.Columns, frameRows(f))
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", f.Len())
	return nil
}

func renderJSON(w io.Writer, f *frame.Frame) error {
	results := make([]map[string]any, 0, f.Len())
	for _, r := range f.Rows {
		row := make(map[string]any, len(f.Columns))
		for i, col := range f.Columns {
			row[col] = r[i]
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, f *frame.Frame) error {
	output.NewTable(w, f.Columns, frameRows(f)).RenderCSV()
	return nil
}

func renderMarkdown(w io.Writer, f *frame.Frame) error {
	if f.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	output.NewTable(w, f.Columns, frameRows(f)).RenderMarkdown()
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return frame.String(v)
}

// Helper functions for subcommands

func listTables(ctx context.Context, w io.Writer, eng *engine.Engine, format string) error {
	tables, err := eng.Tables(ctx)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []any{t.Name, t.Columns, t.RowCount})
	}
	return renderFrame(w, frame.New([]string{"name", "columns", "rows"}, rows), format)
}

func showSchema(ctx context.Context, w io.Writer, eng *engine.Engine, tableName, format string) error {
	// Tables loads the data set if needed.
	if _, err := eng.Tables(ctx); err != nil {
		return err
	}
	wh, err := eng.Warehouse(ctx)
	if err != nil {
		return err
	}
	columns, err := wh.Schema(ctx, tableName)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(columns))
	for _, c := range columns {
		nullable := "NO"
		if c.Nullable {
			nullable = "YES"
		}
		rows = append(rows, []any{c.Name, c.Type, nullable})
	}
	if format == "table" || format == "" {
		_, _ = fmt.Fprintf(w, "Table: %s\n", tableName)
	}
	return renderFrame(w, frame.New([]string{"column", "type", "nullable"}, rows), format)
}
