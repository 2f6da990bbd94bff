// Package dashboard serves the chart pages: the page shell, option changes,
// live updates and per-tile exports.
package dashboard

import (
	"time"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/engine"
)

// OptionSignals is the datastar signal set sent by the option selector.
type OptionSignals struct {
	Option string `json:"option"`
}

// PageData holds everything the page shell renders.
type PageData struct {
	Pages []*catalog.Page
	Page  *catalog.Page
	Panel PanelData
}

// PanelData is the part of the page replaced on option change and reload.
type PanelData struct {
	Slug        string
	Option      string
	Sections    []engine.RenderedSection
	RefreshedAt time.Time
}
