// Package frame provides the in-memory tabular result type shared by the
// spreadsheet decoder, the warehouse and the chart renderer.
//
// A Frame is read-only once built. Operations that select rows return a new
// Frame that shares no row slices with the receiver.
package frame

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Frame is an ordered set of named columns and rows of scalar cells.
// Cells hold string, float64, int64, bool or nil.
type Frame struct {
	Columns []string
	Rows    [][]any

	index map[string]int
}

// New creates a frame from column names and rows.
// Rows shorter than the header are padded with nil.
func New(columns []string, rows [][]any) *Frame {
	f := &Frame{Columns: columns, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		f.Rows = append(f.Rows, pad(r, len(columns)))
	}
	f.buildIndex()
	return f
}

// Empty returns an empty frame with the given columns.
func Empty(columns ...string) *Frame {
	return New(columns, nil)
}

func (f *Frame) buildIndex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, dup := f.index[c]; !dup {
			f.index[c] = i
		}
	}
}

func pad(row []any, n int) []any {
	out := make([]any, n)
	copy(out, row)
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// IsEmpty reports whether the frame is nil or has no rows.
func (f *Frame) IsEmpty() bool {
	return f.Len() == 0
}

// Has reports whether the frame has the named column.
func (f *Frame) Has(column string) bool {
	if f == nil {
		return false
	}
	if f.index == nil {
		f.buildIndex()
	}
	_, ok := f.index[column]
	return ok
}

// Require returns an error naming the first missing column.
func (f *Frame) Require(columns ...string) error {
	for _, c := range columns {
		if c == "" {
			continue
		}
		if !f.Has(c) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return nil
}

// ColumnIndex returns the position of a column, or -1.
func (f *Frame) ColumnIndex(column string) int {
	if !f.Has(column) {
		return -1
	}
	return f.index[column]
}

// Value returns the cell at row i of the named column.
func (f *Frame) Value(i int, column string) any {
	idx := f.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(f.Rows) {
		return nil
	}
	return f.Rows[i][idx]
}

// Values returns a copy of the named column.
func (f *Frame) Values(column string) []any {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[idx]
	}
	return out
}

// Strings returns the named column rendered as strings. Nil cells become "".
func (f *Frame) Strings(column string) []string {
	vals := f.Values(column)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = String(v)
	}
	return out
}

// Floats returns the named column as float64. Cells that are not numeric
// become NaN.
func (f *Frame) Floats(column string) []float64 {
	vals := f.Values(column)
	out := make([]float64, len(vals))
	for i, v := range vals {
		if n, ok := Float(v); ok {
			out[i] = n
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Unique returns the distinct non-nil values of a column as strings, in
// first-appearance order.
func (f *Frame) Unique(column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range f.Values(column) {
		if v == nil {
			continue
		}
		s := String(v)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := &Frame{Columns: f.Columns}
	for i, r := range f.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, pad(r, len(f.Columns)))
		}
	}
	out.buildIndex()
	return out
}

// Where returns the rows whose column renders to value.
// A missing column yields an empty frame with the same header.
func (f *Frame) Where(column, value string) *Frame {
	if f == nil {
		return Empty()
	}
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return Empty(f.Columns...)
	}
	return f.Filter(func(i int) bool {
		v := f.Rows[i][idx]
		return v != nil && String(v) == value
	})
}

// String renders a cell the way it is displayed in charts and tables.
// Whole floats print without a fractional part.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return String(float64(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case []byte:
		return string(t)
	case *big.Int:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Float converts a numeric cell (or numeric string) to float64.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return f, true
	case interface{ Float64() float64 }:
		return t.Float64(), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
