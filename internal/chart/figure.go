package chart

import (
	"encoding/json"
	"math"
)

// Figure is a Plotly.js figure document. The browser draws it with
// Plotly.newPlot(el, figure.data, figure.layout).
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace. Only the attributes the dashboard uses are modelled.
type Trace struct {
	Type          string      `json:"type"`
	Name          string      `json:"name,omitempty"`
	LegendGroup   string      `json:"legendgroup,omitempty"`
	HoverTemplate string      `json:"hovertemplate,omitempty"`
	Orientation   string      `json:"orientation,omitempty"`
	Mode          string      `json:"mode,omitempty"`
	X             []any       `json:"x,omitempty"`
	Y             []any       `json:"y,omitempty"`
	Z             [][]any     `json:"z,omitempty"`
	Text          any         `json:"text,omitempty"`
	TextTemplate  string      `json:"texttemplate,omitempty"`
	TextPosition  string      `json:"textposition,omitempty"`
	Marker        *Marker     `json:"marker,omitempty"`
	ErrorX        *ErrorBar   `json:"error_x,omitempty"`
	ColorScale    []ColorStop `json:"colorscale,omitempty"`
	ShowScale     *bool       `json:"showscale,omitempty"`
	ZMin          *float64    `json:"zmin,omitempty"`
	ZMax          *float64    `json:"zmax,omitempty"`
}

// Marker styles bars and scatter points.
type Marker struct {
	Color string `json:"color,omitempty"`
	Size  int    `json:"size,omitempty"`
}

// ErrorBar is an asymmetric horizontal error bar in data units.
type ErrorBar struct {
	Type       string `json:"type"`
	Symmetric  bool   `json:"symmetric"`
	Array      []any  `json:"array"`
	ArrayMinus []any  `json:"arrayminus"`
}

// ColorStop is one [position, color] pair of a continuous color scale.
type ColorStop struct {
	Pos   float64
	Color string
}

// MarshalJSON encodes the stop as a two element array.
func (c ColorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Pos, c.Color})
}

// Layout is the Plotly layout object.
type Layout struct {
	Title        *Title       `json:"title,omitempty"`
	XAxis        *Axis        `json:"xaxis,omitempty"`
	YAxis        *Axis        `json:"yaxis,omitempty"`
	Legend       *Legend      `json:"legend,omitempty"`
	ShowLegend   *bool        `json:"showlegend,omitempty"`
	PaperBGColor string       `json:"paper_bgcolor,omitempty"`
	PlotBGColor  string       `json:"plot_bgcolor,omitempty"`
	Width        int          `json:"width,omitempty"`
	Height       int          `json:"height,omitempty"`
	BarMode      string       `json:"barmode,omitempty"`
	Shapes       []Shape      `json:"shapes,omitempty"`
	Annotations  []Annotation `json:"annotations,omitempty"`
}

// Title is a text title.
type Title struct {
	Text string `json:"text"`
}

// Axis configures an x or y axis.
type Axis struct {
	Title          *Title    `json:"title,omitempty"`
	Range          []float64 `json:"range,omitempty"`
	Side           string    `json:"side,omitempty"`
	ShowTickLabels *bool     `json:"showticklabels,omitempty"`
	ShowGrid       *bool     `json:"showgrid,omitempty"`
	ZeroLine       *bool     `json:"zeroline,omitempty"`
	Visible        *bool     `json:"visible,omitempty"`
	CategoryOrder  string    `json:"categoryorder,omitempty"`
	CategoryArray  []string  `json:"categoryarray,omitempty"`
}

// Legend positions the legend.
type Legend struct {
	Title       *Title  `json:"title,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
	EntryWidth  int     `json:"entrywidth,omitempty"`
	XRef        string  `json:"xref,omitempty"`
	YRef        string  `json:"yref,omitempty"`
	XAnchor     string  `json:"xanchor,omitempty"`
	YAnchor     string  `json:"yanchor,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Shape is a layout shape; the dashboard only draws vertical lines.
type Shape struct {
	Type string    `json:"type"`
	XRef string    `json:"xref"`
	YRef string    `json:"yref"`
	X0   float64   `json:"x0"`
	X1   float64   `json:"x1"`
	Y0   float64   `json:"y0"`
	Y1   float64   `json:"y1"`
	Line ShapeLine `json:"line"`
}

// ShapeLine styles a shape outline.
type ShapeLine struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
	Dash  string `json:"dash,omitempty"`
}

// Annotation is a free text label.
type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref,omitempty"`
	YRef      string  `json:"yref,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XAnchor   string  `json:"xanchor,omitempty"`
	YAnchor   string  `json:"yanchor,omitempty"`
	ShowArrow bool    `json:"showarrow"`
	TextAngle float64 `json:"textangle"`
	Font      *Font   `json:"font,omitempty"`
}

// Font styles annotation text.
type Font struct {
	Size   int    `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
}

// JSON encodes the figure.
func (f *Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

// num converts a float to a JSON-safe cell; NaN and Inf become null.
func num(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
