package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

func TestParseEffect(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		ok      bool
		display string
		code    int
		hasCode bool
	}{
		{"significant expected", "0.412*/Significativo/sentido esperado", true, "0.412*", 2, true},
		{"not significant expected", "0.050/No significativo/sentido esperado", true, "0.050", 1, true},
		{"not significant contrary", "-0.100/No significativo/sentido contrario", true, "-0.100", -2, true},
		{"significant contrary", "-0.300***/Significativo/sentido contrario", true, "-0.300***", -1, true},
		{"nan marker stripped", "0.2nan/No significativo/sentido esperado", true, "0.200", 1, true},
		{"unknown label", "0.1**/otra cosa", true, "0.100**", 0, false},
		{"nan cell", "nan", false, "", 0, false},
		{"blank cell", "  ", false, "", 0, false},
		{"not a number", "abc/Significativo/sentido esperado", false, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := ParseEffect(tt.in)
			require.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, " ", CellText(nil))
				assert.Nil(t, CellCode(nil))
				return
			}
			assert.Equal(t, tt.display, e.Display())
			code, hasCode := e.Code()
			assert.Equal(t, tt.hasCode, hasCode)
			assert.Equal(t, tt.code, code)
		})
	}
}

func effects(label string, keys ...[2]string) EffectTable {
	t := EffectTable{Label: label}
	for i, k := range keys {
		t.Rows = append(t.Rows, EffectRow{
			Construct:   k[0],
			Measurement: k[1],
			Effect:      &Effect{Value: float64(i) / 10, Label: LabelSignificantExpected},
		})
	}
	return t
}

func TestMergeEffectsOuterJoin(t *testing.T) {
	tables := []EffectTable{
		effects("Professional Development", [2]string{"Prosocialidad", "Pre-Post"}, [2]string{"Autoconocimiento", "Pre-Post"}),
		effects("Systemic Leadership Training", [2]string{"Prosocialidad", "Pre-Post"}, [2]string{"Bienestar psicológico", "Pre-Follow"}),
		effects("Teenagers: Groups 1, 2 & 3", [2]string{"Regulación emocional", "Pre-Post"}),
		effects("Teenagers: Groups 4 & 5", [2]string{"Autoconocimiento", "Pre-Post"}, [2]string{"Malestar psicológico", "Pre-Post"}),
	}

	m := MergeEffects(tables)

	require.Len(t, m.Columns, 4)
	require.Len(t, m.Rows, 5)

	keys := make(map[[2]string]MatrixRow)
	for _, r := range m.Rows {
		keys[[2]string{r.Construct, r.Measurement}] = r
		assert.Len(t, r.Cells, 4)
	}
	for _, tbl := range tables {
		for _, r := range tbl.Rows {
			_, ok := keys[[2]string{r.Construct, r.Measurement}]
			assert.True(t, ok, "missing key %s/%s", r.Construct, r.Measurement)
		}
	}

	pro := keys[[2]string{"Prosocialidad", "Pre-Post"}]
	assert.NotNil(t, pro.Cells[0])
	assert.NotNil(t, pro.Cells[1])
	assert.Nil(t, pro.Cells[2])
	assert.Nil(t, pro.Cells[3])
	assert.Equal(t, " ", CellText(pro.Cells[2]))
}

func TestMergeEffectsFirstRowWins(t *testing.T) {
	tbl := EffectTable{Label: "a", Rows: []EffectRow{
		{Construct: "c", Measurement: "m", Effect: &Effect{Value: 1}},
		{Construct: "c", Measurement: "m", Effect: &Effect{Value: 2}},
	}}
	m := MergeEffects([]EffectTable{tbl})
	require.Len(t, m.Rows, 1)
	assert.Equal(t, 1.0, m.Rows[0].Cells[0].Value)
}

func TestSortByConstruct(t *testing.T) {
	m := Matrix{Rows: []MatrixRow{
		{Construct: "Autoconocimiento", Measurement: "a"},
		{Construct: "Desconocido", Measurement: "x"},
		{Construct: "Prosocialidad", Measurement: "b"},
		{Construct: "Autoconocimiento", Measurement: "c"},
	}}
	m.SortByConstruct(ConstructOrder)

	var got []string
	for _, r := range m.Rows {
		got = append(got, r.Construct+"/"+r.Measurement)
	}
	assert.Equal(t, []string{
		"Prosocialidad/b",
		"Autoconocimiento/a",
		"Autoconocimiento/c",
		"Desconocido/x",
	}, got)
}

func TestEffectsFromFrame(t *testing.T) {
	f := frame.New(
		[]string{"Constructo", "Medición inglés", "D-cohen", "Significancia", "Comportamiento"},
		[][]any{
			{"Prosocialidad", "Pre-Post", 0.412, "*", LabelSignificantExpected},
			{"Autoconocimiento", "Pre-Post", nil, "nan", nil},
		},
	)

	tbl, err := EffectsFromFrame("PD", f, DefaultEffectColumns)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "0.412*", tbl.Rows[0].Effect.Display())
	assert.Nil(t, tbl.Rows[1].Effect)

	_, err = EffectsFromFrame("bad", frame.Empty("Constructo"), DefaultEffectColumns)
	assert.ErrorIs(t, err, frame.ErrMissingColumn)
}

func TestBuildSummary(t *testing.T) {
	s := &SummarySpec{
		Inputs: []EffectTable{
			effects("A", [2]string{"Prosocialidad", "m1"}),
			effects("B", [2]string{"Autoconocimiento", "m2"}),
		},
		Scale:           DefaultTheme().Scale("Comportamiento"),
		ConstructOrder:  ConstructOrder,
		ConstructLabels: DefaultTheme().Translation("Constructo"),
	}

	fig, err := BuildSummary(s)
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)

	tr := fig.Data[0]
	assert.Equal(t, "heatmap", tr.Type)
	assert.Equal(t, []any{"A", "B"}, tr.X)
	assert.Equal(t, []any{[]string{"Prosociality", "Self awareness"}, []string{"m1", "m2"}}, tr.Y)
	assert.Equal(t, [][]any{{2, nil}, {nil, 2}}, tr.Z)
	assert.Equal(t, [][]string{{"0.000", " "}, {" ", "0.000"}}, tr.Text)
	assert.Equal(t, "top", fig.Layout.XAxis.Side)
	assert.Equal(t, summaryHeight, fig.Layout.Height)

	raw, err := fig.JSON()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	colorscale := doc["data"].([]any)[0].(map[string]any)["colorscale"].([]any)
	assert.Equal(t, []any{0.0, "#F9C6BF"}, colorscale[0])
}

func TestBuildSummaryNoInputs(t *testing.T) {
	_, err := BuildSummary(&SummarySpec{})
	assert.ErrorIs(t, err, ErrNoInputs)
}
