package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/output"
	"github.com/leapstack-labs/evaldash/internal/engine"
)

// NewChartsCommand creates the charts command.
func NewChartsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "charts <page> [option]",
		Short: "Render the charts of a page option",
		Long: `Load the data, render every chart of a page option and list them with their
kind, grid rows and tile titles. Without an option the page default is used.`,
		Example: `  evaldash charts beneficiaries
  evaldash charts outcomes "Outcome Summary Table" --output json`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completePageOptions,
		RunE:              runCharts,
	}
}

func runCharts(cmd *cobra.Command, args []string) error {
	page, option := args[0], ""
	if len(args) > 1 {
		option = args[1]
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	p, err := cmdCtx.Engine.Page(page)
	if err != nil {
		return err
	}
	opt, err := p.Option(option)
	if err != nil {
		return err
	}

	sections, err := cmdCtx.Engine.Render(cmd.Context(), page, opt.Name)
	if err != nil {
		return err
	}
	charts := chartInfos(sections)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(charts)
	}

	r.Header(1, fmt.Sprintf("%s: %s", p.Title, opt.Name))
	if len(charts) == 0 {
		r.Muted("(no charts: every query came back empty)")
		return nil
	}
	rows := make([][]any, 0, len(charts))
	for _, c := range charts {
		rows = append(rows, []any{c.Key, c.Kind, c.Rows, len(c.Tiles), c.Title, strings.Join(c.Tiles, ", ")})
	}
	r.Table([]string{"key", "kind", "rows", "tiles", "title", "tile titles"}, rows)
	return nil
}

func chartInfos(sections []engine.RenderedSection) []output.ChartInfo {
	charts := make([]output.ChartInfo, 0, len(sections))
	for _, s := range sections {
		info := output.ChartInfo{Key: s.Key, Title: s.Title, Kind: string(s.Panel.Kind), Rows: len(s.Panel.Rows)}
		for _, row := range s.Panel.Rows {
			for _, t := range row.Tiles {
				info.Tiles = append(info.Tiles, t.Title)
			}
		}
		charts = append(charts, info)
	}
	return charts
}
