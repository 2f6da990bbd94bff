package chart

import "github.com/leapstack-labs/evaldash/internal/frame"

// Grid is a tiling of disaggregated charts.
type Grid struct {
	Rows []GridRow
}

// GridRow is one row of the grid. Widths are relative column widths; Cells
// place tiles into those columns.
type GridRow struct {
	Widths []float64
	Cells  []GridCell
}

// GridCell places the tile with index Index into column Column of its row.
type GridCell struct {
	Column int
	Index  int
}

var (
	pairWidths     = []float64{0.5, 0.5}
	centeredWidths = []float64{0.25, 0.5, 0.25}
)

// GridLayout tiles k charts two per row. When k is odd the last row holds one
// tile centred in the middle column.
func GridLayout(k int) Grid {
	var g Grid
	for i := 0; i < k; i += 2 {
		if i+1 < k {
			g.Rows = append(g.Rows, GridRow{
				Widths: pairWidths,
				Cells:  []GridCell{{Column: 0, Index: i}, {Column: 1, Index: i + 1}},
			})
			continue
		}
		g.Rows = append(g.Rows, GridRow{
			Widths: centeredWidths,
			Cells:  []GridCell{{Column: 1, Index: i}},
		})
	}
	return g
}

// Tiles returns the number of tiles placed in the grid.
func (g Grid) Tiles() int {
	n := 0
	for _, r := range g.Rows {
		n += len(r.Cells)
	}
	return n
}

// DisaggregationValues lists the tile values for f: the configured order
// filtered to values present in the data, then remaining values by first
// appearance.
func DisaggregationValues(f *frame.Frame, d *Disaggregation) []string {
	if f == nil || d == nil || !f.Has(d.Column) {
		return nil
	}
	return orderedValues(f.Unique(d.Column), d.Order)
}

// TileTitle returns the translated title for a tile value, falling back to
// the raw value.
func (d *Disaggregation) TileTitle(value string) string {
	if t, ok := d.Titles[value]; ok {
		return t
	}
	return value
}
