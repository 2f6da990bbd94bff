package chart

// Background is the paper and plot color of every figure.
const Background = "#F5F0EA"

// Footnote is the significance legend printed under effect-size charts.
const Footnote = "*p<0.05, **p<0.01, *** p<0.001"

// Theme holds the shared palettes, orders, translations and line sets that
// catalog entries refer to by name.
type Theme struct {
	Palettes     map[string]map[string]string
	Orders       map[string][]string
	Translations map[string]map[string]string
	Scales       map[string][]ColorStop
	Lines        map[string]*LineSet
}

// Palette returns the palette registered for a column, or nil.
func (t *Theme) Palette(column string) map[string]string {
	if t == nil {
		return nil
	}
	return t.Palettes[column]
}

// Order returns the category order registered for a column, or nil.
func (t *Theme) Order(column string) []string {
	if t == nil {
		return nil
	}
	return t.Orders[column]
}

// Translation returns the label map registered under name, or nil.
func (t *Theme) Translation(name string) map[string]string {
	if t == nil {
		return nil
	}
	return t.Translations[name]
}

// Scale returns the color scale registered under name, or nil.
func (t *Theme) Scale(name string) []ColorStop {
	if t == nil {
		return nil
	}
	return t.Scales[name]
}

// LineSet returns the reference line set registered under name, or nil.
func (t *Theme) LineSet(name string) *LineSet {
	if t == nil {
		return nil
	}
	return t.Lines[name]
}

// ConstructOrder is the display order of psychometric constructs.
var ConstructOrder = []string{
	"Autoconocimiento",
	"Bienestar psicológico",
	"Malestar psicológico",
	"Prosocialidad",
	"Regulación emocional",
	"Seguridad y pertenencia",
	"Creencias sobre el Aprendizaje Socioemocional",
	"Aprendizaje socioemocional en la comunidad educativa",
}

// DefaultTheme returns the evaluation's fixed palettes and labels.
func DefaultTheme() *Theme {
	return &Theme{
		Palettes: map[string]map[string]string{
			"Constructo": {
				"Autoconocimiento":                                     "#22314E",
				"Regulación emocional":                                 "#1A7F83",
				"Malestar psicológico":                                 "#F15D4A",
				"Prosocialidad":                                        "#F0BA54",
				"Bienestar psicológico":                                "#4F6AA8",
				"Creencias sobre el Aprendizaje Socioemocional":        "#F59794",
				"Seguridad y pertenencia":                              "#D094EA",
				"Aprendizaje socioemocional en la comunidad educativa": "#F59794",
			},
			"Prioridad": {
				"Priority 1":           "#154360",
				"Priority 2":           "#2471a3",
				"Kellogg's Priority":   "#22314E",
				"Authorized Extension": "#5dade2",
				"Other":                "#d6eaf8",
				"Not Reached":          "#FFFFFF",
			},
			"Ben_directo": {
				"25": "#A7B4CD",
				"1":  "#22314E",
			},
			"Comportamiento": {
				LabelSignificantExpected:    "#22314E",
				LabelSignificantContrary:    "#F15D4A",
				LabelNotSignificantExpected: "#8898b3",
				LabelNotSignificantContrary: "#F8BAB1",
			},
		},
		Orders: map[string][]string{
			"Constructo": {
				"Malestar psicológico", "Bienestar psicológico", "Regulación emocional", "Prosocialidad",
				"Autoconocimiento", "Seguridad y pertenencia",
				"Creencias sobre el Aprendizaje Socioemocional",
				"Aprendizaje socioemocional en la comunidad educativa",
			},
			"Prioridad":   {"Priority 1", "Priority 2", "Kellogg's Priority", "Authorized Extension", "Other"},
			"Entidad":     {"Campeche", "Quintana Roo", "Yucatán", "No data"},
			"Tipo":        {"Professionals", "Systemic Leadership Training", "Professionals/Systemic Leadership Training", "Teenagers"},
			"Ben_directo": {"25", "1"},
		},
		Translations: map[string]map[string]string{
			"Constructo": {
				"Autoconocimiento":                                     "Self awareness",
				"Bienestar psicológico":                                "Well being",
				"Malestar psicológico":                                 "Psychological distress",
				"Prosocialidad":                                        "Prosociality",
				"Regulación emocional":                                 "Emotion Regulation",
				"Seguridad y pertenencia":                              "Mindsets",
				"Creencias sobre el Aprendizaje Socioemocional":        "Beliefs about social and emotional learning",
				"Aprendizaje socioemocional en la comunidad educativa": "School-wide SEL implementation",
			},
			"Ben_directo": {
				"25": "Indirect",
				"1":  "Direct",
			},
			"Comportamiento": {
				LabelSignificantExpected:    "Significant / expected direction",
				LabelSignificantContrary:    "Significant / opposite direction",
				LabelNotSignificantExpected: "Not significant / expected direction",
				LabelNotSignificantContrary: "Not significant / opposite direction",
			},
		},
		Scales: map[string][]ColorStop{
			"Comportamiento": {
				{Pos: 0, Color: "#F9C6BF"},
				{Pos: 0.25, Color: "#F49184"},
				{Pos: 0.5, Color: "#D1DAEB"},
				{Pos: 1, Color: "#415E99"},
			},
		},
		Lines: map[string]*LineSet{
			"Effect_Size": {
				Lines: []RefLine{
					{Label: "Small", X: 0.2},
					{Label: "Medium", X: 0.5},
					{Label: "Big", X: 0.8},
				},
				Notes: []Note{{Text: Footnote, X: 0, Y: -0.175}},
			},
			"D-Cohen": {
				Lines: []RefLine{{X: -1.0}, {X: -0.5}, {X: 0.0}, {X: 0.5}, {X: 1.0}},
				Notes: []Note{{Text: Footnote, X: 0, Y: -0.225}},
			},
		},
	}
}
