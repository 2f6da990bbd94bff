package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/output"
)

// NewSheetsCommand creates the sheets command.
func NewSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Load the spreadsheets and list them",
		Long: `Download (or read) every configured spreadsheet, load it into DuckDB and
list the resulting tables with their row and column counts.`,
		Example: `  evaldash sheets
  evaldash sheets --data-dir ./data --output json`,
		Args: cobra.NoArgs,
		RunE: runSheets,
	}
}

func runSheets(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	tables, err := eng.Tables(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load sheets: %w", err)
	}
	byName := make(map[string]int, len(tables))
	for i, t := range tables {
		byName[t.Name] = i
	}

	infos := make([]output.SheetInfo, 0, len(eng.Sheets()))
	for _, s := range eng.Sheets() {
		info := output.SheetInfo{Name: s.Name, Type: string(s.Type), Sheet: s.SheetName, Key: s.Key}
		if i, ok := byName[s.Name]; ok {
			info.Rows = tables[i].RowCount
			info.Columns = tables[i].Columns
		}
		infos = append(infos, info)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header(1, fmt.Sprintf("Sheets (%d total)", len(infos)))
	rows := make([][]any, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []any{s.Name, s.Type, s.Sheet, s.Rows, s.Columns})
	}
	r.Table([]string{"name", "type", "sheet", "rows", "columns"}, rows)
	if at := eng.RefreshedAt(); !at.IsZero() {
		r.Muted("loaded at " + at.Format("2006-01-02 15:04:05"))
	}
	return nil
}
