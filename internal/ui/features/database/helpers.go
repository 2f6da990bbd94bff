package database

import (
	"strconv"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// previewLimit is how many rows a table preview shows.
const previewLimit = 20

// DetailID is the element patched with a table's detail.
const DetailID = "table-detail"

func tablePath(name string) string {
	return "/data/tables/" + name
}

// formatValue renders a result cell; SQL NULL is shown as such.
func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return frame.String(v)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
