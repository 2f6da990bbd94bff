package output

// SheetInfo describes one loaded sheet for JSON output.
type SheetInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Sheet   string `json:"sheet,omitempty"`
	Key     string `json:"key"`
	Rows    int64  `json:"rows"`
	Columns int    `json:"columns"`
}

// PageInfo describes a dashboard page and its selector options.
type PageInfo struct {
	Slug    string       `json:"slug"`
	Title   string       `json:"title"`
	Default string       `json:"default"`
	Options []OptionInfo `json:"options"`
}

// OptionInfo is one selector option with the charts it shows.
type OptionInfo struct {
	Name   string   `json:"name"`
	Charts []string `json:"charts"`
}

// ChartInfo describes one rendered chart of an option.
type ChartInfo struct {
	Key   string   `json:"key"`
	Title string   `json:"title"`
	Kind  string   `json:"kind"`
	Rows  int      `json:"rows"`
	Tiles []string `json:"tiles"`
}

// ExportOutput lists the files written by an export.
type ExportOutput struct {
	Page    string       `json:"page"`
	Option  string       `json:"option"`
	Dir     string       `json:"dir"`
	Files   []ExportFile `json:"files"`
	Skipped []string     `json:"skipped,omitempty"`
}

// ExportFile is one exported tile.
type ExportFile struct {
	Chart string `json:"chart"`
	Tile  int    `json:"tile"`
	Title string `json:"title,omitempty"`
	JSON  string `json:"json"`
	PNG   string `json:"png,omitempty"`
}
