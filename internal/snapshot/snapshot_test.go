package snapshot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestPNGBarFigure(t *testing.T) {
	fig := &chart.Figure{
		Data: []chart.Trace{
			{Type: "bar", Name: "Priority 1", Orientation: "h", X: []any{3.0, 1.0}, Y: []any{"Campeche", "Yucatán"}, Marker: &chart.Marker{Color: "#154360"}},
			{Type: "bar", Name: "Other", Orientation: "h", X: []any{int64(2)}, Y: []any{"Yucatán"}, Marker: &chart.Marker{Color: "#d6eaf8"}},
		},
		Layout: chart.Layout{Title: &chart.Title{Text: "Beneficiaries<br>per state"}, Width: 640, Height: 400},
	}

	out, err := Bytes(fig)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestPNGBuiltFromSpec(t *testing.T) {
	spec := &chart.BarSpec{
		Common: chart.Common{Title: "Effect sizes"},
		Data: frame.New([]string{"Medición inglés", "D-cohen", "Constructo"}, [][]any{
			{"Pre-Post", -0.3, "Prosocialidad"},
			{"Pre-Seg", 0.5, "Prosocialidad"},
		}),
		X:           "D-cohen",
		Y:           "Medición inglés",
		Color:       "Constructo",
		Orientation: chart.Horizontal,
	}
	fig, err := chart.Build(spec)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, fig))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGFlatValues(t *testing.T) {
	fig := &chart.Figure{Data: []chart.Trace{{Type: "bar", X: []any{"a", "b"}, Y: []any{0.0, 0.0}}}}
	out, err := Bytes(fig)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestPNGUnsupported(t *testing.T) {
	tests := []struct {
		name string
		fig  *chart.Figure
	}{
		{"nil", nil},
		{"no traces", &chart.Figure{}},
		{"heatmap", &chart.Figure{Data: []chart.Trace{{Type: "heatmap"}}}},
		{"scatter", &chart.Figure{Data: []chart.Trace{{Type: "scatter", X: []any{1.0}, Y: []any{"a"}}}}},
		{"only nulls", &chart.Figure{Data: []chart.Trace{{Type: "bar", X: []any{"a"}, Y: []any{nil}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bytes(tt.fig)
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, ok := parseColor("#154360")
	require.True(t, ok)
	assert.Equal(t, uint8(0x15), c.R)

	_, ok = parseColor("#1543")
	assert.False(t, ok)
	_, ok = parseColor("")
	assert.False(t, ok)
}
