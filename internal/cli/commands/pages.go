package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/cli/output"
)

// NewPagesCommand creates the pages command.
func NewPagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List dashboard pages and their options",
		Long: `List the dashboard pages, the options of each page's selector and the charts
every option shows. No data is loaded.`,
		Args: cobra.NoArgs,
		RunE: runPages,
	}
}

func runPages(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	pages := pageInfos(cat)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(pages)
	case output.ModeMarkdown:
		for _, p := range pages {
			r.Header(2, p.Title)
			r.Println(output.FormatKeyValue("Slug", p.Slug))
			r.Println(output.FormatKeyValue("Default", p.Default))
			for _, o := range p.Options {
				r.Println(output.FormatKeyValue(o.Name, strings.Join(o.Charts, ", ")))
			}
			r.Println()
		}
		return nil
	default:
		styles := r.Styles()
		for _, p := range pages {
			r.Header(1, fmt.Sprintf("%s (%s)", p.Title, p.Slug))
			for _, o := range p.Options {
				marker := "  "
				if o.Name == p.Default {
					marker = "* "
				}
				r.Printf("%s%s %s\n", marker, styles.Bold.Render(o.Name), styles.Muted.Render(strings.Join(o.Charts, ", ")))
			}
			r.Println()
		}
		return nil
	}
}

func pageInfos(cat *catalog.Catalog) []output.PageInfo {
	pages := make([]output.PageInfo, 0, len(cat.Pages()))
	for _, p := range cat.Pages() {
		info := output.PageInfo{Slug: p.Slug, Title: p.Title, Default: p.Default}
		for _, o := range p.Options {
			keys := make([]string, 0, len(o.Charts))
			for _, c := range o.Charts {
				keys = append(keys, c.Key)
			}
			info.Options = append(info.Options, output.OptionInfo{Name: o.Name, Charts: keys})
		}
		pages = append(pages, info)
	}
	return pages
}

// completePages completes page slugs.
func completePages(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var slugs []string
	for _, p := range cat.Pages() {
		slugs = append(slugs, p.Slug)
	}
	return slugs, cobra.ShellCompDirectiveNoFileComp
}

// completePageOptions completes a page slug, then one of its options.
func completePageOptions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completePages(cmd, args, toComplete)
	}
	if len(args) > 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	p, err := cat.Page(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return p.OptionNames(), cobra.ShellCompDirectiveNoFileComp
}
