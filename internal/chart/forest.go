package chart

import (
	"fmt"
	"math"
)

const (
	forestWidth      = 750
	forestHeight     = 500
	forestMarkerSize = 20
	forestLegendX    = 0.6
)

// BuildForest renders point estimates with asymmetric horizontal error bars,
// one marker trace per distinct value of the color column.
func BuildForest(s *ForestSpec) (*Figure, error) {
	if s.Data == nil {
		return nil, fmt.Errorf("forest %q: no data", s.Title)
	}
	if err := s.Data.Require(s.Estimate, s.Label, s.Low, s.High, s.Color); err != nil {
		return nil, fmt.Errorf("forest %q: %w", s.Title, err)
	}

	fig := &Figure{
		Layout: Layout{
			XAxis:        &Axis{Range: []float64{-1, 1}, Title: titleOrNil(s.XTitle)},
			PaperBGColor: Background,
			PlotBGColor:  Background,
			Width:        forestWidth,
			Height:       forestHeight,
			ShowLegend:   boolPtr(true),
			Legend: &Legend{
				Orientation: "h",
				EntryWidth:  forestLegendEntry,
				YAnchor:     "bottom",
				Y:           legendAbovePlot,
				XAnchor:     "left",
				X:           forestLegendX,
			},
		},
	}
	if s.TileTitle != "" {
		fig.Layout.Title = &Title{Text: s.TileTitle}
	}

	for _, cat := range colorCategories(s.Data, s.Color, nil) {
		rows := s.Data
		if s.Color != "" {
			rows = s.Data.Where(s.Color, cat)
		}
		est := rows.Floats(s.Estimate)
		low := rows.Floats(s.Low)
		high := rows.Floats(s.High)

		plus := make([]any, len(est))
		minus := make([]any, len(est))
		x := make([]any, len(est))
		for i := range est {
			x[i] = num(est[i])
			plus[i] = num(math.Abs(high[i] - est[i]))
			minus[i] = num(math.Abs(low[i] - est[i]))
		}

		t := Trace{
			Type:        "scatter",
			Mode:        "markers",
			Name:        cat,
			LegendGroup: cat,
			X:           x,
			Y:           cells(rows.Values(s.Label)),
			ErrorX: &ErrorBar{
				Type:       "data",
				Symmetric:  false,
				Array:      plus,
				ArrayMinus: minus,
			},
			Marker: &Marker{Color: s.Palette[cat], Size: forestMarkerSize},
		}
		fig.Data = append(fig.Data, t)
	}

	if len(s.Translation) > 0 {
		TranslateLegend(fig, "", s.Translation)
	}

	if s.Lines != nil {
		for _, l := range s.Lines.Lines {
			addVLine(fig, RefLine{X: l.X})
		}
		addNotes(fig, s.Lines.Notes)
	}

	return fig, nil
}
