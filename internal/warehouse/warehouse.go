// Package warehouse keeps the loaded spreadsheets in an embedded DuckDB
// database so that pages can aggregate them with SQL.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// Config holds the connection settings.
type Config struct {
	// Path is the database file. Empty or ":memory:" opens an in-memory database.
	Path   string
	Logger *slog.Logger
}

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Table summarises a loaded table.
type Table struct {
	Name     string
	Columns  int
	RowCount int64
}

// Querier runs read queries. *Warehouse satisfies it.
type Querier interface {
	Query(ctx context.Context, query string) (*frame.Frame, error)
}

// Warehouse is a DuckDB connection holding one table per sheet.
type Warehouse struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to DuckDB.
func Open(ctx context.Context, cfg Config) (*Warehouse, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return New(db, cfg.Logger), nil
}

// New wraps an existing connection.
func New(db *sql.DB, logger *slog.Logger) *Warehouse {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warehouse{db: db, logger: logger}
}

// Close closes the connection.
func (w *Warehouse) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// Exec runs a statement that returns no rows.
func (w *Warehouse) Exec(ctx context.Context, stmt string) error {
	if _, err := w.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Load replaces table name with the contents of f.
func (w *Warehouse) Load(ctx context.Context, name string, f *frame.Frame) (err error) {
	if f == nil || len(f.Columns) == 0 {
		return fmt.Errorf("load %s: frame has no columns", name)
	}
	types := columnTypes(f)

	defs := make([]string, len(f.Columns))
	marks := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		defs[i] = QuoteIdent(c) + " " + types[i]
		marks[i] = "?"
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("load %s: create table: %w", name, err)
	}

	if f.Len() > 0 {
		insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(name), strings.Join(marks, ", ")) //nolint:gosec // identifiers are quoted
		stmt, perr := tx.PrepareContext(ctx, insert)
		if perr != nil {
			err = perr
			return fmt.Errorf("load %s: prepare insert: %w", name, err)
		}
		defer func() { _ = stmt.Close() }()

		args := make([]any, len(f.Columns))
		for _, row := range f.Rows {
			for i, v := range row {
				args[i] = coerce(v, types[i])
			}
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("load %s: insert: %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("load %s: commit: %w", name, err)
	}
	w.logger.Debug("loaded table", "table", name, "rows", f.Len(), "columns", len(f.Columns))
	return nil
}

// Query runs a read query and collects the result into a frame.
func (w *Warehouse) Query(ctx context.Context, query string) (*frame.Frame, error) {
	//nolint:rowserrcheck // checked after iteration
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return frame.New(cols, out), nil
}

// Tables lists the tables of the main schema with their sizes.
func (w *Warehouse) Tables(ctx context.Context) ([]Table, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT t.table_name, count(c.column_name)
		FROM information_schema.tables t
		LEFT JOIN information_schema.columns c
			ON c.table_schema = t.table_schema AND c.table_name = t.table_name
		WHERE t.table_schema = 'main'
		GROUP BY t.table_name
		ORDER BY t.table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Columns); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	for i := range tables {
		q := "SELECT count(*) FROM " + QuoteIdent(tables[i].Name) //nolint:gosec // identifier is quoted
		if err := w.db.QueryRowContext(ctx, q).Scan(&tables[i].RowCount); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", tables[i].Name, err)
		}
	}
	return tables, nil
}

// Schema returns the columns of a table.
func (w *Warehouse) Schema(ctx context.Context, table string) ([]Column, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// QuoteIdent quotes an identifier for DuckDB.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQL column types used for sheet tables.
const (
	typeDouble  = "DOUBLE"
	typeBoolean = "BOOLEAN"
	typeVarchar = "VARCHAR"
)

// columnTypes picks DOUBLE when every non-nil cell is numeric, BOOLEAN when
// every non-nil cell is a bool, VARCHAR otherwise.
func columnTypes(f *frame.Frame) []string {
	types := make([]string, len(f.Columns))
	for i := range f.Columns {
		numeric, boolean, seen := true, true, false
		for _, row := range f.Rows {
			v := row[i]
			if v == nil {
				continue
			}
			seen = true
			switch v.(type) {
			case int64, int, int32, float64, float32:
				boolean = false
			case bool:
				numeric = false
			default:
				numeric, boolean = false, false
			}
		}
		switch {
		case !seen:
			types[i] = typeVarchar
		case numeric:
			types[i] = typeDouble
		case boolean:
			types[i] = typeBoolean
		default:
			types[i] = typeVarchar
		}
	}
	return types
}

func coerce(v any, typ string) any {
	if v == nil {
		return nil
	}
	switch typ {
	case typeDouble:
		n, _ := frame.Float(v)
		return n
	case typeVarchar:
		return frame.String(v)
	default:
		return v
	}
}

// normalize converts driver values to frame cells.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case uint64:
		return int64(t) //nolint:gosec // counts fit in int64
	case uint32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
