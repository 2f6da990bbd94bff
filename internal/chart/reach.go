package chart

import (
	"fmt"
	"strings"
)

// Reach legend messages.
const (
	ReachAllMessage    = "All priority municipalities were reached."
	ReachMissingPrefix = "Priority municipalities not reached:<br>"
)

const (
	reachWidth    = 1200
	reachHeight   = 200
	reachFontSize = 40
)

// ReachMessage formats the legend text for the names of unreached municipalities.
func ReachMessage(names []string) string {
	if len(names) == 0 {
		return ReachAllMessage
	}
	return ReachMissingPrefix + strings.Join(names, ", ")
}

// BuildReach renders the text legend listing unreached municipalities. An
// absent frame is treated as "nothing missing".
func BuildReach(s *ReachSpec) (*Figure, error) {
	var names []string
	if s.Data != nil {
		if err := s.Data.Require(s.Column); err != nil {
			return nil, fmt.Errorf("reach %q: %w", s.Title, err)
		}
		names = s.Data.Unique(s.Column)
	}

	fig := &Figure{
		Data: []Trace{},
		Layout: Layout{
			XAxis:        hiddenAxis(),
			YAxis:        hiddenAxis(),
			PaperBGColor: Background,
			PlotBGColor:  Background,
			Width:        reachWidth,
			Height:       reachHeight,
			Annotations: []Annotation{{
				Text:    ReachMessage(names),
				XRef:    "paper",
				YRef:    "paper",
				X:       0.5,
				Y:       0.5,
				XAnchor: "center",
				YAnchor: "middle",
				Font:    &Font{Size: reachFontSize, Weight: "bold"},
			}},
		},
	}
	if s.TileTitle != "" {
		fig.Layout.Title = &Title{Text: s.TileTitle}
	}
	return fig, nil
}

func hiddenAxis() *Axis {
	return &Axis{
		Visible:        boolPtr(false),
		ShowGrid:       boolPtr(false),
		ZeroLine:       boolPtr(false),
		ShowTickLabels: boolPtr(false),
	}
}
