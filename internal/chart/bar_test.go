package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

func beneficiaries() *frame.Frame {
	return frame.New(
		[]string{"Entidad", "Prioridad", "Conteo"},
		[][]any{
			{"Yucatán", "Other", int64(4)},
			{"Campeche", "Priority 1", int64(10)},
			{"Campeche", "Priority 2", int64(3)},
			{"Quintana Roo", "Priority 1", int64(7)},
		},
	)
}

func TestBuildBarTracesFollowOrder(t *testing.T) {
	theme := DefaultTheme()
	s := &BarSpec{
		Data:       beneficiaries(),
		X:          "Entidad",
		Y:          "Conteo",
		Color:      "Prioridad",
		Palette:    theme.Palette("Prioridad"),
		Orders:     map[string][]string{"Prioridad": theme.Order("Prioridad"), "Entidad": theme.Order("Entidad")},
		Text:       "Conteo",
		ShowLegend: true,
	}

	fig, err := BuildBar(s)
	require.NoError(t, err)
	require.Len(t, fig.Data, 3)

	var names []string
	for _, tr := range fig.Data {
		names = append(names, tr.Name)
	}
	assert.Equal(t, []string{"Priority 1", "Priority 2", "Other"}, names)
	assert.Equal(t, "#154360", fig.Data[0].Marker.Color)
	assert.Equal(t, []any{"Campeche", "Quintana Roo"}, fig.Data[0].X)
	assert.Equal(t, []string{"10", "7"}, fig.Data[0].Text)
	assert.Equal(t, "Prioridad=Priority 1<br>Entidad=%{x}<br>Conteo=%{y}<extra></extra>", fig.Data[0].HoverTemplate)

	assert.Equal(t, barHeight, fig.Layout.Height)
	assert.Equal(t, Background, fig.Layout.PaperBGColor)
	assert.Equal(t, "array", fig.Layout.XAxis.CategoryOrder)
	assert.True(t, *fig.Layout.ShowLegend)
	assert.Equal(t, legendAbovePlot, fig.Layout.Legend.Y)
}

func TestBuildBarFloatText(t *testing.T) {
	f := frame.New([]string{"Medición inglés", "D-cohen"}, [][]any{{"Pre-Post", 0.41234}})
	fig, err := BuildBar(&BarSpec{Data: f, X: "D-cohen", Y: "Medición inglés", Text: "D-cohen", TextKind: TextFloat, Orientation: Horizontal})
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []string{"0.41"}, fig.Data[0].Text)
	assert.Equal(t, "h", fig.Data[0].Orientation)
}

func TestBuildBarMissingColumn(t *testing.T) {
	_, err := BuildBar(&BarSpec{Data: beneficiaries(), X: "Tipo", Y: "Conteo"})
	assert.ErrorIs(t, err, frame.ErrMissingColumn)
}

func TestTranslateLegendLeavesNoOldNames(t *testing.T) {
	f := frame.New(
		[]string{"Entidad", "Ben_directo", "Conteo"},
		[][]any{{"Campeche", "25", 3.0}, {"Campeche", "1", 5.0}, {"Yucatán", "1", 2.0}},
	)
	translation := map[string]string{"25": "Indirect", "1": "Direct"}
	fig, err := BuildBar(&BarSpec{
		Data: f, X: "Entidad", Y: "Conteo", Color: "Ben_directo",
		Translation: translation, ShowLegend: true,
	})
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)

	for _, tr := range fig.Data {
		for old, label := range translation {
			assert.NotEqual(t, old, tr.Name)
			assert.NotEqual(t, old, tr.LegendGroup)
			assert.NotContains(t, tr.HoverTemplate, "Ben_directo="+old+"<br>")
			if tr.Name == label {
				assert.Equal(t, label, tr.LegendGroup)
				assert.True(t, strings.HasPrefix(tr.HoverTemplate, "Ben_directo="+label+"<br>"))
			}
		}
	}
}

func TestBuildBarReferenceLines(t *testing.T) {
	theme := DefaultTheme()
	f := frame.New([]string{"Medición inglés", "D-cohen"}, [][]any{{"Pre-Post", 0.3}})

	horizontal, err := BuildBar(&BarSpec{Data: f, X: "D-cohen", Y: "Medición inglés", Orientation: Horizontal, Lines: theme.LineSet("Effect_Size")})
	require.NoError(t, err)
	assert.Len(t, horizontal.Layout.Shapes, 3)
	// three labels plus the footnote
	assert.Len(t, horizontal.Layout.Annotations, 4)
	assert.False(t, *horizontal.Layout.XAxis.ShowTickLabels)

	vertical, err := BuildBar(&BarSpec{Data: f, X: "Medición inglés", Y: "D-cohen", Orientation: Vertical, Lines: theme.LineSet("Effect_Size")})
	require.NoError(t, err)
	assert.Empty(t, vertical.Layout.Shapes)
	require.Len(t, vertical.Layout.Annotations, 1)
	assert.Equal(t, Footnote, vertical.Layout.Annotations[0].Text)
}

func TestBuildForest(t *testing.T) {
	theme := DefaultTheme()
	f := frame.New(
		[]string{"Medición inglés_sig", "D-cohen", "conf.low", "conf.high", "Comportamiento"},
		[][]any{
			{"Pre-Post*", 0.4, 0.1, 0.9, LabelSignificantExpected},
			{"Pre-Follow", -0.2, -0.5, 0.3, LabelNotSignificantContrary},
		},
	)
	fig, err := BuildForest(&ForestSpec{
		Data: f, Estimate: "D-cohen", Label: "Medición inglés_sig", Low: "conf.low", High: "conf.high",
		Color: "Comportamiento", Palette: theme.Palette("Comportamiento"),
		Translation: theme.Translation("Comportamiento"), Lines: theme.LineSet("D-Cohen"),
	})
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)

	first := fig.Data[0]
	assert.Equal(t, "Significant / expected direction", first.Name)
	assert.Equal(t, "#22314E", first.Marker.Color)
	assert.Equal(t, forestMarkerSize, first.Marker.Size)
	assert.InDelta(t, 0.5, first.ErrorX.Array[0].(float64), 1e-9)
	assert.InDelta(t, 0.3, first.ErrorX.ArrayMinus[0].(float64), 1e-9)
	assert.False(t, first.ErrorX.Symmetric)

	assert.Equal(t, []float64{-1, 1}, fig.Layout.XAxis.Range)
	assert.Equal(t, forestWidth, fig.Layout.Width)
	assert.Len(t, fig.Layout.Shapes, 5)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("barchart")
	require.NoError(t, err)
	assert.Equal(t, KindBar, k)

	k, err = ParseKind("reached_municipalities_legend")
	require.NoError(t, err)
	assert.Equal(t, KindReach, k)

	_, err = ParseKind("pie")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
