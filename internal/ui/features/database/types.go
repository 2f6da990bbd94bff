// Package database provides the data browser: the loaded sheets, their
// columns and a preview of their rows.
package database

import (
	"time"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

// TableInfo is one loaded sheet.
type TableInfo struct {
	Name    string
	Type    string // gsheets, excel or local
	Sheet   string
	Rows    int64
	Columns int
}

// TableMeta is a table's columns and its first rows.
type TableMeta struct {
	Name    string
	Rows    int64
	Columns []ColumnMeta
	Preview *frame.Frame
}

// ColumnMeta represents column metadata.
type ColumnMeta struct {
	Name     string
	Type     string
	Nullable bool
}

// PageData is everything the browser page shows.
type PageData struct {
	Pages    []*catalog.Page
	Tables   []TableInfo
	LoadedAt time.Time
}
