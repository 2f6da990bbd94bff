package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/output"
	"github.com/leapstack-labs/evaldash/internal/snapshot"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Out   string
	NoPNG bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <page> [option]",
		Short: "Write the figures of a page option to disk",
		Long: `Render a page option and write every tile as Plotly figure JSON and, for bar
charts, as a PNG image. Files are named <chart>-<tile>.json and <chart>-<tile>.png.`,
		Example: `  evaldash export beneficiaries "Direct Beneficiaries" --out ./figures
  evaldash export outcomes --out ./figures --no-png`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completePageOptions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "figures", "Output directory")
	cmd.Flags().BoolVar(&opts.NoPNG, "no-png", false, "Only write figure JSON")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts *ExportOptions) error {
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

	if err := os.MkdirAll(opts.Out, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	result := output.ExportOutput{Page: page, Option: opt.Name, Dir: opts.Out}
	for _, s := range sections {
		i := 0
		for _, row := range s.Panel.Rows {
			for _, tile := range row.Tiles {
				base := filepath.Join(opts.Out, fmt.Sprintf("%s-%d", s.Key, i))
				file := output.ExportFile{Chart: s.Key, Tile: i, Title: tile.Title, JSON: base + ".json"}
				i++

				data, err := tile.Figure.JSON()
				if err != nil {
					return fmt.Errorf("encode %s: %w", file.JSON, err)
				}
				if err := os.WriteFile(file.JSON, data, 0600); err != nil {
					return err
				}

				if !opts.NoPNG {
					png, err := snapshot.Bytes(tile.Figure)
					switch {
					case errors.Is(err, snapshot.ErrUnsupported):
						result.Skipped = append(result.Skipped, base+".png")
					case err != nil:
						return fmt.Errorf("render %s.png: %w", base, err)
					default:
						file.PNG = base + ".png"
						if err := os.WriteFile(file.PNG, png, 0600); err != nil {
							return err
						}
					}
				}
				result.Files = append(result.Files, file)
				cmdCtx.Logger.Debug("exported tile", "chart", s.Key, "tile", file.Tile)
			}
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(result)
	}

	r.Success(fmt.Sprintf("Exported %d figures of %q to %s", len(result.Files), opt.Name, opts.Out))
	for _, f := range result.Files {
		line := f.JSON
		if f.PNG != "" {
			line += ", " + f.PNG
		}
		r.Println("  " + line)
	}
	if len(result.Skipped) > 0 {
		r.Muted(fmt.Sprintf("%d figures have no PNG rendering (only bar charts do)", len(result.Skipped)))
	}
	return nil
}
