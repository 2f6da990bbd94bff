package catalog

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

// Querier runs the chart queries against the loaded sheets.
type Querier interface {
	Query(ctx context.Context, query string) (*frame.Frame, error)
}

// Section is one chart of a rendered option: its subtitle and specification.
type Section struct {
	Key   string
	Title string
	Spec  chart.Spec
}

// Theme returns the page theme with its overrides applied.
func (p *Page) Theme() *chart.Theme {
	return p.theme
}

// Build runs the queries of one option and returns a chart specification per
// chart, in declaration order. Charts whose data comes back empty are left
// out, except reach legends where an empty result is the message.
func (c *Catalog) Build(ctx context.Context, q Querier, page, option string) ([]Section, error) {
	p, err := c.Page(page)
	if err != nil {
		return nil, err
	}
	o, err := p.Option(option)
	if err != nil {
		return nil, err
	}

	var sections []Section
	for _, def := range o.Charts {
		spec, err := def.spec(ctx, q, p.theme)
		if err != nil {
			return nil, fmt.Errorf("%s / %s / %s: %w", p.Slug, o.Name, def.Key, err)
		}
		if spec == nil {
			continue
		}
		sections = append(sections, Section{Key: def.Key, Title: def.Title, Spec: spec})
	}
	return sections, nil
}

// spec builds the specification for one chart; nil means "skip".
func (c *ChartDef) spec(ctx context.Context, q Querier, theme *chart.Theme) (chart.Spec, error) {
	switch c.kind {
	case chart.KindBar:
		data, err := q.Query(ctx, c.Query)
		if err != nil {
			return nil, err
		}
		if data.IsEmpty() {
			return nil, nil
		}
		return &chart.BarSpec{
			Common:      c.common(theme),
			Data:        data,
			X:           c.X,
			Y:           c.Y,
			Orientation: chart.Orientation(c.Orientation),
			Color:       c.Color,
			Palette:     c.palette(theme),
			Orders:      c.orders(theme, c.X, c.Y, c.Color),
			Text:        c.Text,
			TextKind:    chart.TextKind(c.TextKind),
			XTitle:      c.XTitle,
			YTitle:      c.YTitle,
			LegendTitle: c.LegendTitle,
			ShowLegend:  c.ShowLegend,
			Translation: c.translation(theme),
			Lines:       theme.LineSet(c.Lines),
		}, nil

	case chart.KindForest:
		data, err := q.Query(ctx, c.Query)
		if err != nil {
			return nil, err
		}
		if data.IsEmpty() {
			return nil, nil
		}
		return &chart.ForestSpec{
			Common:      c.common(theme),
			Data:        data,
			Estimate:    c.Estimate,
			Label:       c.Label,
			Low:         c.Low,
			High:        c.High,
			Color:       c.Color,
			Palette:     c.palette(theme),
			Translation: c.translation(theme),
			XTitle:      c.XTitle,
			Lines:       theme.LineSet(c.Lines),
		}, nil

	case chart.KindSummary:
		inputs := make([]chart.EffectTable, 0, len(c.Inputs))
		rows := 0
		for _, in := range c.Inputs {
			data, err := q.Query(ctx, in.Query)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", in.Label, err)
			}
			rows += data.Len()
			table, err := chart.EffectsFromFrame(in.Label, data, chart.DefaultEffectColumns)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, table)
		}
		if rows == 0 {
			return nil, nil
		}
		return &chart.SummarySpec{
			Common:          c.common(theme),
			Inputs:          inputs,
			Columns:         chart.DefaultEffectColumns,
			Scale:           theme.Scale(c.Scale),
			ConstructOrder:  chart.ConstructOrder,
			ConstructLabels: theme.Translation(chart.DefaultEffectColumns.Construct),
		}, nil

	case chart.KindReach:
		data, err := q.Query(ctx, c.Query)
		if err != nil {
			return nil, err
		}
		return &chart.ReachSpec{Common: c.common(theme), Data: data, Column: c.Column}, nil

	default:
		return nil, fmt.Errorf("%w: %q", chart.ErrUnknownKind, c.Kind)
	}
}

func (c *ChartDef) common(theme *chart.Theme) chart.Common {
	cm := chart.Common{Title: c.Title}
	if c.Disaggregate != "" {
		cm.Disaggregate = &chart.Disaggregation{
			Column: c.Disaggregate,
			Order:  c.order(theme, c.Disaggregate),
			Titles: theme.Translation(c.Disaggregate),
		}
	}
	return cm
}

func (c *ChartDef) palette(theme *chart.Theme) map[string]string {
	if len(c.Palette) > 0 {
		return c.Palette
	}
	return theme.Palette(c.Color)
}

func (c *ChartDef) translation(theme *chart.Theme) map[string]string {
	if len(c.Labels) > 0 {
		return c.Labels
	}
	if c.Translation != "" {
		return theme.Translation(c.Translation)
	}
	return nil
}

func (c *ChartDef) order(theme *chart.Theme, column string) []string {
	if o, ok := c.Order[column]; ok {
		return o
	}
	return theme.Order(column)
}

func (c *ChartDef) orders(theme *chart.Theme, columns ...string) map[string][]string {
	out := make(map[string][]string)
	for _, col := range columns {
		if col == "" {
			continue
		}
		if o := c.order(theme, col); len(o) > 0 {
			out[col] = o
		}
	}
	return out
}
