package chart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// Direction labels as written in the evaluation result sheets.
const (
	LabelSignificantExpected    = "Significativo/sentido esperado"
	LabelNotSignificantExpected = "No significativo/sentido esperado"
	LabelNotSignificantContrary = "No significativo/sentido contrario"
	LabelSignificantContrary    = "Significativo/sentido contrario"
)

const (
	summaryHeight = 1200
	blankCell     = " "
	nanLiteral    = "nan"
)

var effectCodes = map[string]int{
	LabelSignificantExpected:    2,
	LabelNotSignificantExpected: 1,
	LabelNotSignificantContrary: -2,
	LabelSignificantContrary:    -1,
}

// Effect is one effect-size result: the value, its significance marker
// ("", "*", "**", "***") and its significance/direction label.
type Effect struct {
	Value  float64
	Marker string
	Label  string
}

// Display is the on-cell text: the value to three decimals plus the marker.
func (e Effect) Display() string {
	return strconv.FormatFloat(e.Value, 'f', 3, 64) + e.Marker
}

// Code returns the signed significance x direction encoding.
func (e Effect) Code() (int, bool) {
	c, ok := effectCodes[strings.TrimSpace(e.Label)]
	return c, ok
}

// ParseEffect reads a legacy "<value><marker>/<label>" cell such as
// "0.412*/Significativo/sentido esperado". Blank and "nan" cells report false.
// A literal "nan" marker is dropped.
func ParseEffect(s string) (Effect, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == nanLiteral {
		return Effect{}, false
	}

	head, label, _ := strings.Cut(s, "/")
	end := 0
	for end < len(head) && strings.ContainsRune("+-.0123456789", rune(head[end])) {
		end++
	}
	v, err := strconv.ParseFloat(head[:end], 64)
	if err != nil {
		return Effect{}, false
	}
	marker := strings.ReplaceAll(head[end:], nanLiteral, "")

	return Effect{Value: v, Marker: strings.TrimSpace(marker), Label: strings.TrimSpace(label)}, true
}

// CellText renders an optional effect for display; blanks become a single space.
func CellText(e *Effect) string {
	if e == nil {
		return blankCell
	}
	return e.Display()
}

// CellCode returns the encoding of an optional effect, or nil when blank or
// unlabelled.
func CellCode(e *Effect) any {
	if e == nil {
		return nil
	}
	if c, ok := e.Code(); ok {
		return c
	}
	return nil
}

// EffectColumns names the columns of an effect result table.
type EffectColumns struct {
	Construct    string
	Measurement  string
	Value        string
	Significance string
	Direction    string
}

// DefaultEffectColumns are the column names of the evaluation result sheets.
var DefaultEffectColumns = EffectColumns{
	Construct:    "Constructo",
	Measurement:  "Medición inglés",
	Value:        "D-cohen",
	Significance: "Significancia",
	Direction:    "Comportamiento",
}

// EffectRow is one keyed effect.
type EffectRow struct {
	Construct   string
	Measurement string
	Effect      *Effect
}

// EffectTable is a labelled list of effects, one column of the summary matrix.
type EffectTable struct {
	Label string
	Rows  []EffectRow
}

// EffectsFromFrame extracts keyed effects from a result table. Rows without a
// numeric value keep their key with a blank effect.
func EffectsFromFrame(label string, f *frame.Frame, cols EffectColumns) (EffectTable, error) {
	table := EffectTable{Label: label}
	if f == nil {
		return table, nil
	}
	if err := f.Require(cols.Construct, cols.Measurement, cols.Value); err != nil {
		return table, fmt.Errorf("effects %q: %w", label, err)
	}
	for i := range f.Rows {
		row := EffectRow{
			Construct:   frame.String(f.Value(i, cols.Construct)),
			Measurement: frame.String(f.Value(i, cols.Measurement)),
		}
		if v, ok := frame.Float(f.Value(i, cols.Value)); ok {
			e := &Effect{Value: v}
			if cols.Significance != "" {
				e.Marker = strings.ReplaceAll(frame.String(f.Value(i, cols.Significance)), nanLiteral, "")
			}
			if cols.Direction != "" {
				e.Label = frame.String(f.Value(i, cols.Direction))
			}
			row.Effect = e
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Matrix is the outer join of several effect tables on (construct, measurement).
type Matrix struct {
	Columns []string
	Rows    []MatrixRow
}

// MatrixRow is one key of the matrix with one optional effect per column.
type MatrixRow struct {
	Construct   string
	Measurement string
	Cells       []*Effect
}

type matrixKey struct {
	construct   string
	measurement string
}

// MergeEffects outer-joins the tables: every key found in any table appears
// once, in first-appearance order, with blank cells where a table lacks it.
// Within one table the first row for a key wins.
func MergeEffects(tables []EffectTable) Matrix {
	m := Matrix{Columns: make([]string, len(tables))}
	index := make(map[matrixKey]int)

	for col, t := range tables {
		m.Columns[col] = t.Label
		for _, r := range t.Rows {
			k := matrixKey{r.Construct, r.Measurement}
			pos, ok := index[k]
			if !ok {
				pos = len(m.Rows)
				index[k] = pos
				m.Rows = append(m.Rows, MatrixRow{
					Construct:   r.Construct,
					Measurement: r.Measurement,
					Cells:       make([]*Effect, len(tables)),
				})
			}
			if m.Rows[pos].Cells[col] == nil {
				m.Rows[pos].Cells[col] = r.Effect
			}
		}
	}
	return m
}

// SortByConstruct orders rows by descending position in order; the heat-map
// draws its first row at the bottom, so the first construct ends on top.
// Constructs missing from order go last. The sort is stable.
func (m *Matrix) SortByConstruct(order []string) {
	rank := make(map[string]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	sort.SliceStable(m.Rows, func(i, j int) bool {
		ri, iok := rank[m.Rows[i].Construct]
		rj, jok := rank[m.Rows[j].Construct]
		if iok != jok {
			return iok
		}
		return ri > rj
	})
}

// BuildSummary renders the significance heat-map.
func BuildSummary(s *SummarySpec) (*Figure, error) {
	if len(s.Inputs) == 0 {
		return nil, fmt.Errorf("summary %q: %w", s.Title, ErrNoInputs)
	}

	m := MergeEffects(s.Inputs)
	if len(s.ConstructOrder) > 0 {
		m.SortByConstruct(s.ConstructOrder)
	}

	constructs := make([]string, len(m.Rows))
	measurements := make([]string, len(m.Rows))
	z := make([][]any, len(m.Rows))
	text := make([][]string, len(m.Rows))
	for i, r := range m.Rows {
		constructs[i] = r.Construct
		if label, ok := s.ConstructLabels[r.Construct]; ok {
			constructs[i] = label
		}
		measurements[i] = r.Measurement
		z[i] = make([]any, len(r.Cells))
		text[i] = make([]string, len(r.Cells))
		for j, c := range r.Cells {
			z[i][j] = CellCode(c)
			text[i][j] = CellText(c)
		}
	}

	x := make([]any, len(m.Columns))
	for i, c := range m.Columns {
		x[i] = c
	}

	fig := &Figure{
		Data: []Trace{{
			Type:         "heatmap",
			X:            x,
			Y:            []any{constructs, measurements},
			Z:            z,
			Text:         text,
			TextTemplate: "%{text}",
			ColorScale:   s.Scale,
			ShowScale:    boolPtr(false),
			ZMin:         floatPtr(-2),
			ZMax:         floatPtr(2),
		}},
		Layout: Layout{
			PaperBGColor: Background,
			PlotBGColor:  Background,
			Height:       summaryHeight,
			XAxis:        &Axis{Side: "top"},
		},
	}
	return fig, nil
}
