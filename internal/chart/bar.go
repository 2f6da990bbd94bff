package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

const (
	barHeight          = 550
	barLegendEntry     = 160
	forestLegendEntry  = 175
	legendAbovePlot    = 1.02
	referenceLineColor = "grey"
)

// BuildBar renders a categorical bar chart, one trace per color category.
func BuildBar(s *BarSpec) (*Figure, error) {
	if s.Data == nil {
		return nil, fmt.Errorf("bar %q: no data", s.Title)
	}
	if err := s.Data.Require(s.X, s.Y, s.Color, s.Text); err != nil {
		return nil, fmt.Errorf("bar %q: %w", s.Title, err)
	}

	fig := &Figure{}
	for _, cat := range colorCategories(s.Data, s.Color, s.Orders[s.Color]) {
		rows := s.Data
		if s.Color != "" {
			rows = s.Data.Where(s.Color, cat)
		}
		fig.Data = append(fig.Data, barTrace(s, rows, cat))
	}

	fig.Layout = Layout{
		XAxis:        &Axis{Title: titleOrNil(s.XTitle)},
		YAxis:        &Axis{Title: titleOrNil(s.YTitle)},
		PaperBGColor: Background,
		PlotBGColor:  Background,
		Height:       barHeight,
		BarMode:      "relative",
		Legend: &Legend{
			Title:       titleOrNil(s.LegendTitle),
			XRef:        "paper",
			YRef:        "paper",
			Orientation: "h",
			EntryWidth:  barLegendEntry,
			YAnchor:     "bottom",
			Y:           legendAbovePlot,
			XAnchor:     "left",
			X:           0,
		},
		ShowLegend: boolPtr(s.ShowLegend),
	}
	if s.TileTitle != "" {
		fig.Layout.Title = &Title{Text: s.TileTitle}
	}
	applyCategoryArray(fig.Layout.XAxis, s.Data, s.X, s.Orders[s.X])
	applyCategoryArray(fig.Layout.YAxis, s.Data, s.Y, s.Orders[s.Y])

	if len(s.Translation) > 0 {
		TranslateLegend(fig, s.Color, s.Translation)
	}

	if s.Lines != nil {
		if s.Orientation == Horizontal {
			for _, l := range s.Lines.Lines {
				addVLine(fig, l)
			}
		}
		if len(s.Lines.Notes) > 0 {
			addNotes(fig, s.Lines.Notes)
			fig.Layout.XAxis.ShowTickLabels = boolPtr(false)
		}
	}

	return fig, nil
}

func barTrace(s *BarSpec, rows *frame.Frame, cat string) Trace {
	orientation := s.Orientation
	if orientation == "" {
		orientation = Vertical
	}

	t := Trace{
		Type:          "bar",
		Name:          cat,
		LegendGroup:   cat,
		Orientation:   string(orientation),
		X:             cells(rows.Values(s.X)),
		Y:             cells(rows.Values(s.Y)),
		HoverTemplate: hoverTemplate(s.Color, cat, s.X, s.Y, s.Text),
	}
	if color, ok := s.Palette[cat]; ok {
		t.Marker = &Marker{Color: color}
	}

	if s.Text != "" {
		t.Text = barLabels(rows.Values(s.Text), s.TextKind)
		t.TextPosition = "auto"
	}
	return t
}

// hoverTemplate mirrors the plotly express template: color, x, y and text.
func hoverTemplate(color, cat, x, y, text string) string {
	var parts []string
	if color != "" {
		parts = append(parts, color+"="+cat)
	}
	parts = append(parts, x+"=%{x}", y+"=%{y}")
	if text != "" && text != x && text != y {
		parts = append(parts, text+"=%{text}")
	}
	return strings.Join(parts, "<br>") + "<extra></extra>"
}

func barLabels(vals []any, kind TextKind) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if kind == TextFloat {
			if n, ok := frame.Float(v); ok {
				out[i] = fmt.Sprintf("%.2f", n)
				continue
			}
		}
		out[i] = frame.String(v)
	}
	return out
}

// TranslateLegend relabels traces whose name is a key of labels. The trace
// name, legend group and hover text are updated together.
func TranslateLegend(fig *Figure, column string, labels map[string]string) {
	for i := range fig.Data {
		t := &fig.Data[i]
		label, ok := labels[t.Name]
		if !ok {
			continue
		}
		if column != "" {
			t.HoverTemplate = strings.Replace(t.HoverTemplate, column+"="+t.Name, column+"="+label, 1)
		} else {
			t.HoverTemplate = strings.ReplaceAll(t.HoverTemplate, t.Name, label)
		}
		t.Name = label
		t.LegendGroup = label
	}
}

// colorCategories returns the distinct values of column, ordered first by
// order and then by first appearance. An empty column yields one unnamed group.
func colorCategories(f *frame.Frame, column string, order []string) []string {
	if column == "" {
		return []string{""}
	}
	return orderedValues(f.Unique(column), order)
}

// orderedValues sorts present values by order, appending unknown values in
// their original order. Values in order that are not present are dropped.
func orderedValues(present, order []string) []string {
	have := make(map[string]bool, len(present))
	for _, v := range present {
		have[v] = true
	}
	out := make([]string, 0, len(present))
	used := make(map[string]bool, len(present))
	for _, v := range order {
		if have[v] && !used[v] {
			out = append(out, v)
			used[v] = true
		}
	}
	for _, v := range present {
		if !used[v] {
			out = append(out, v)
			used[v] = true
		}
	}
	return out
}

// applyCategoryArray fixes the axis order to the values of column present in f.
func applyCategoryArray(axis *Axis, f *frame.Frame, column string, order []string) {
	if len(order) == 0 {
		return
	}
	axis.CategoryOrder = "array"
	axis.CategoryArray = orderedValues(f.Unique(column), order)
}

func addVLine(fig *Figure, l RefLine) {
	fig.Layout.Shapes = append(fig.Layout.Shapes, Shape{
		Type: "line",
		XRef: "x",
		YRef: "y domain",
		X0:   l.X,
		X1:   l.X,
		Y0:   0,
		Y1:   1,
		Line: ShapeLine{Color: referenceLineColor, Width: 1, Dash: "dash"},
	})
	if l.Label == "" {
		return
	}
	fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
		Text:    l.Label,
		XRef:    "x",
		YRef:    "y domain",
		X:       l.X,
		Y:       0,
		YAnchor: "top",
	})
}

func addNotes(fig *Figure, notes []Note) {
	for _, n := range notes {
		fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
			Text: n.Text,
			XRef: "paper",
			YRef: "paper",
			X:    n.X,
			Y:    n.Y,
		})
	}
}

func titleOrNil(s string) *Title {
	if s == "" {
		return nil
	}
	return &Title{Text: s}
}

// cells copies frame cells into JSON-safe values.
func cells(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			continue
		}
		out[i] = v
	}
	return out
}
