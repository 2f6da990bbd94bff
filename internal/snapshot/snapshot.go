// Package snapshot draws static PNG images of dashboard figures for export.
// Only bar figures are supported; the interactive charts stay in the browser.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

// ErrUnsupported is returned for figures that have no static rendering.
var ErrUnsupported = errors.New("snapshot: unsupported figure")

const (
	defaultWidth  = 1024
	defaultHeight = 600
	maxBarWidth   = 60
)

// PNG renders a bar figure as a PNG image.
func PNG(w io.Writer, fig *chart.Figure) error {
	if fig == nil {
		return fmt.Errorf("%w: nil figure", ErrUnsupported)
	}
	bars, err := barValues(fig)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars", ErrUnsupported)
	}

	width, height := fig.Layout.Width, fig.Layout.Height
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}

	bc := gochart.BarChart{
		Title:      title(fig),
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(width, len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      gochart.YAxis{Range: valueRange(bars)},
		Bars:       bars,
	}
	return bc.Render(gochart.PNG, w)
}

// Bytes renders a figure into memory.
func Bytes(fig *chart.Figure) ([]byte, error) {
	var buf bytes.Buffer
	if err := PNG(&buf, fig); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func barValues(fig *chart.Figure) ([]gochart.Value, error) {
	var out []gochart.Value
	multi := len(fig.Data) > 1
	for _, tr := range fig.Data {
		if tr.Type != "bar" {
			return nil, fmt.Errorf("%w: %s trace", ErrUnsupported, tr.Type)
		}
		labels, values := tr.X, tr.Y
		if tr.Orientation == "h" {
			labels, values = tr.Y, tr.X
		}
		style := gochart.Style{StrokeWidth: 1}
		if tr.Marker != nil {
			if c, ok := parseColor(tr.Marker.Color); ok {
				style.FillColor = c
				style.StrokeColor = c
			}
		}
		for i, v := range values {
			f, ok := frame.Float(v)
			if !ok || math.IsNaN(f) {
				continue
			}
			label := ""
			if i < len(labels) {
				label = frame.String(labels[i])
			}
			if multi && tr.Name != "" {
				label += " (" + tr.Name + ")"
			}
			out = append(out, gochart.Value{Label: label, Value: f, Style: style})
		}
	}
	return out, nil
}

func title(fig *chart.Figure) string {
	if fig.Layout.Title == nil {
		return ""
	}
	return strings.ReplaceAll(fig.Layout.Title.Text, "<br>", " ")
}

// valueRange spans every bar and always includes zero. A flat range is
// widened so the renderer accepts it.
func valueRange(bars []gochart.Value) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi-lo == 0 {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func barWidth(width, n int) int {
	w := width / (2 * n)
	switch {
	case w > maxBarWidth:
		return maxBarWidth
	case w < 4:
		return 4
	default:
		return w
	}
}

func parseColor(s string) (drawing.Color, bool) {
	switch {
	case strings.HasPrefix(s, "#") && (len(s) == 4 || len(s) == 7):
		return drawing.ParseColor(s), true
	case strings.HasPrefix(s, "rgb"):
		return drawing.ParseColor(s), true
	default:
		return drawing.Color{}, false
	}
}
