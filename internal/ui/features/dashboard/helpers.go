package dashboard

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/ui/features/common"
)

// PanelID is the element patched over SSE.
const PanelID = "panel"

// gridCell is one slot of a panel row; Tile is nil for an empty slot.
type gridCell struct {
	Width float64
	Index int
	Tile  *chart.Tile
}

// panelRows lays the tiles of a section out row by row, numbering tiles in
// reading order.
func panelRows(s engine.RenderedSection) [][]gridCell {
	rows := make([][]gridCell, 0, len(s.Panel.Rows))
	index := 0
	for _, row := range s.Panel.Rows {
		cells := make([]gridCell, len(row.Widths))
		for col, width := range row.Widths {
			cells[col].Width = width
			if t, ok := tileAt(row, col); ok {
				cells[col].Tile = &t
				cells[col].Index = index
				index++
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

func tileAt(row chart.PanelRow, col int) (chart.Tile, bool) {
	for _, t := range row.Tiles {
		if t.Column == col {
			return t, true
		}
	}
	return chart.Tile{}, false
}

func tileAttrs(width float64) templ.Attributes {
	return templ.Attributes{"style": fmt.Sprintf("width:%g%%", width*100)}
}

func shellSignals(data PageData) string {
	return fmt.Sprintf(`{"option": %s}`, strconv.Quote(data.Panel.Option))
}

// action is a datastar backend action expression.
func action(method, path string) string {
	return fmt.Sprintf("@%s('%s')", method, path)
}

func figureID(key string, index int) string {
	return fmt.Sprintf("fig-%s-%d", key, index)
}

func figureJSON(key string, index int, t chart.Tile) (string, error) {
	fig, err := t.Figure.JSON()
	if err != nil {
		return "", fmt.Errorf("encode figure %s/%d: %w", key, index, err)
	}
	return string(fig), nil
}

func pagePath(slug string) string {
	return common.PagePath(slug)
}

func tilePath(data PanelData, key string, index int, ext string) string {
	q := url.Values{"option": {data.Option}}
	return fmt.Sprintf("%s/charts/%s/%d.%s?%s", pagePath(data.Slug), url.PathEscape(key), index, ext, q.Encode())
}
