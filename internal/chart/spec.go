// Package chart turns declarative chart specifications into Plotly figures.
//
// A Spec is one of four closed variants (bar, forest, summary heat-map and
// reach legend). Specs are built fresh for every page render, are treated as
// immutable by this package, and carry every palette, ordering and
// translation they need so that rendering is a pure function of the spec.
package chart

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// Kind names a chart variant.
type Kind string

// Chart kinds.
const (
	KindBar     Kind = "bar"
	KindForest  Kind = "forest"
	KindSummary Kind = "summary"
	KindReach   Kind = "reach"
)

// ParseKind accepts the canonical kind names and the legacy catalog names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar", "barchart":
		return KindBar, nil
	case "forest":
		return KindForest, nil
	case "summary", "summary_table", "heatmap":
		return KindSummary, nil
	case "reach", "reached_municipalities_legend", "text_legend":
		return KindReach, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Orientation of a bar chart.
type Orientation string

// Bar orientations.
const (
	Horizontal Orientation = "h"
	Vertical   Orientation = "v"
)

// TextKind controls how on-bar labels are formatted.
type TextKind string

// Text kinds.
const (
	TextString TextKind = "str"
	TextFloat  TextKind = "float"
)

// Spec is a chart specification. The set of implementations is closed.
type Spec interface {
	Kind() Kind
	common() *Common
}

// Common holds the fields shared by every variant.
type Common struct {
	// Title is shown as the section subtitle above the chart.
	Title string
	// Disaggregate splits the chart into one tile per category value.
	Disaggregate *Disaggregation
	// TileTitle is the figure title; set on each tile of a disaggregated chart.
	TileTitle string
}

// Disaggregation describes how a chart is split into tiles.
type Disaggregation struct {
	Column string
	// Order lists the preferred tile order; values absent from the data are skipped.
	Order []string
	// Titles maps a category value to its tile title.
	Titles map[string]string
}

// LineSet is a set of reference lines with footnote annotations.
type LineSet struct {
	Lines []RefLine
	Notes []Note
}

// RefLine is a dashed vertical line at X, optionally labelled.
type RefLine struct {
	Label string
	X     float64
}

// Note is a footnote placed in paper coordinates.
type Note struct {
	Text string
	X    float64
	Y    float64
}

// BarSpec describes a categorical bar chart.
type BarSpec struct {
	Common

	Data        *frame.Frame
	X           string
	Y           string
	Orientation Orientation
	// Color groups rows into one trace per category.
	Color   string
	Palette map[string]string
	// Orders fixes category order per column, for colors and axes.
	Orders   map[string][]string
	Text     string
	TextKind TextKind

	XTitle      string
	YTitle      string
	LegendTitle string
	ShowLegend  bool
	// Translation relabels legend entries (category -> label).
	Translation map[string]string
	Lines       *LineSet
}

// Kind implements Spec.
func (s *BarSpec) Kind() Kind { return KindBar }

func (s *BarSpec) common() *Common { return &s.Common }

// ForestSpec describes a forest plot of point estimates with intervals.
type ForestSpec struct {
	Common

	Data        *frame.Frame
	Estimate    string
	Label       string
	Low         string
	High        string
	Color       string
	Palette     map[string]string
	Translation map[string]string
	XTitle      string
	Lines       *LineSet
}

// Kind implements Spec.
func (s *ForestSpec) Kind() Kind { return KindForest }

func (s *ForestSpec) common() *Common { return &s.Common }

// SummarySpec describes the significance heat-map built from several effect tables.
type SummarySpec struct {
	Common

	Inputs  []EffectTable
	Columns EffectColumns
	Scale   []ColorStop
	// ConstructOrder is the display order of constructs, first at the top.
	ConstructOrder []string
	// ConstructLabels translates construct names.
	ConstructLabels map[string]string
}

// Kind implements Spec.
func (s *SummarySpec) Kind() Kind { return KindSummary }

func (s *SummarySpec) common() *Common { return &s.Common }

// ReachSpec describes the "not reached" text legend.
type ReachSpec struct {
	Common

	Data   *frame.Frame
	Column string
}

// Kind implements Spec.
func (s *ReachSpec) Kind() Kind { return KindReach }

func (s *ReachSpec) common() *Common { return &s.Common }

// Header returns the common fields of any spec.
func Header(s Spec) Common {
	return *s.common()
}
