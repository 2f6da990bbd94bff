package chart

import "fmt"

// Panel is a rendered chart: one figure per tile laid out on a grid.
type Panel struct {
	Kind Kind
	Rows []PanelRow
}

// PanelRow mirrors GridRow with rendered tiles.
type PanelRow struct {
	Widths []float64
	Tiles  []Tile
}

// Tile is one rendered figure placed in a grid column.
type Tile struct {
	Column int
	// Value is the disaggregation value, empty for undisaggregated charts.
	Value  string
	Title  string
	Figure *Figure
}

// Figures returns every figure of the panel in reading order.
func (p *Panel) Figures() []*Figure {
	var out []*Figure
	for _, r := range p.Rows {
		for _, t := range r.Tiles {
			out = append(out, t.Figure)
		}
	}
	return out
}

// Build renders a single figure, ignoring any disaggregation.
func Build(spec Spec) (*Figure, error) {
	switch s := spec.(type) {
	case *BarSpec:
		return BuildBar(s)
	case *ForestSpec:
		return BuildForest(s)
	case *SummarySpec:
		return BuildSummary(s)
	case *ReachSpec:
		return BuildReach(s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, spec)
	}
}

// Render builds the panel for spec. A disaggregated spec yields one tile per
// value present in its data; otherwise a single full-width tile.
func Render(spec Spec) (*Panel, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrUnknownKind)
	}
	d := spec.common().Disaggregate
	if d == nil || d.Column == "" {
		fig, err := Build(spec)
		if err != nil {
			return nil, err
		}
		return &Panel{
			Kind: spec.Kind(),
			Rows: []PanelRow{{Widths: []float64{1}, Tiles: []Tile{{Figure: fig, Title: spec.common().TileTitle}}}},
		}, nil
	}

	tiles, err := splitTiles(spec, d)
	if err != nil {
		return nil, err
	}

	panel := &Panel{Kind: spec.Kind()}
	for _, row := range GridLayout(len(tiles)).Rows {
		pr := PanelRow{Widths: row.Widths}
		for _, cell := range row.Cells {
			t := tiles[cell.Index]
			t.Column = cell.Column
			pr.Tiles = append(pr.Tiles, t)
		}
		panel.Rows = append(panel.Rows, pr)
	}
	return panel, nil
}

func splitTiles(spec Spec, d *Disaggregation) ([]Tile, error) {
	var tiles []Tile
	switch s := spec.(type) {
	case *BarSpec:
		if err := s.Data.Require(d.Column); err != nil {
			return nil, fmt.Errorf("bar %q: %w", s.Title, err)
		}
		for _, v := range DisaggregationValues(s.Data, d) {
			tile := *s
			tile.Disaggregate = nil
			tile.Data = s.Data.Where(d.Column, v)
			tile.TileTitle = d.TileTitle(v)
			fig, err := BuildBar(&tile)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, Tile{Value: v, Title: tile.TileTitle, Figure: fig})
		}
	case *ForestSpec:
		if err := s.Data.Require(d.Column); err != nil {
			return nil, fmt.Errorf("forest %q: %w", s.Title, err)
		}
		for _, v := range DisaggregationValues(s.Data, d) {
			tile := *s
			tile.Disaggregate = nil
			tile.Data = s.Data.Where(d.Column, v)
			tile.TileTitle = d.TileTitle(v)
			fig, err := BuildForest(&tile)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, Tile{Value: v, Title: tile.TileTitle, Figure: fig})
		}
	case *SummarySpec, *ReachSpec:
		return nil, fmt.Errorf("%s: %w", spec.Kind(), ErrNotSplittable)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, spec)
	}
	return tiles, nil
}
