// Package catalog declares the dashboard pages: for every page the options of
// its sidebar selector and, for every option, the charts to draw. Pages are
// YAML documents embedded in the binary.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/evaldash/internal/chart"
)

//go:embed pages/*.yaml
var pagesFS embed.FS

// Page is one dashboard page.
type Page struct {
	Slug    string `yaml:"slug"`
	Title   string `yaml:"title"`
	Order   int    `yaml:"order"`
	Default string `yaml:"default"`
	// Palettes and Orders override the shared theme for this page.
	Palettes map[string]map[string]string `yaml:"palettes"`
	Orders   map[string][]string          `yaml:"orders"`
	Options  []*Option                    `yaml:"options"`

	theme *chart.Theme
}

// Option is one entry of a page's sidebar selector.
type Option struct {
	Name   string      `yaml:"name"`
	Charts []*ChartDef `yaml:"charts"`
}

// Input is one labelled query of a summary chart.
type Input struct {
	Label string `yaml:"label"`
	Query string `yaml:"query"`
}

// ChartDef declares a chart. Which fields apply depends on Kind.
type ChartDef struct {
	Key   string `yaml:"key"`
	Kind  string `yaml:"kind"`
	Title string `yaml:"title"`
	Query string `yaml:"query"`

	Disaggregate string `yaml:"disaggregate"`

	// bar
	X           string `yaml:"x"`
	Y           string `yaml:"y"`
	Orientation string `yaml:"orientation"`
	Text        string `yaml:"text"`
	TextKind    string `yaml:"text_kind"`
	ShowLegend  bool   `yaml:"show_legend"`

	// bar and forest
	Color       string              `yaml:"color"`
	Palette     map[string]string   `yaml:"palette"`
	Order       map[string][]string `yaml:"order"`
	XTitle      string              `yaml:"x_title"`
	YTitle      string              `yaml:"y_title"`
	LegendTitle string              `yaml:"legend_title"`
	Translation string              `yaml:"translation"`
	Labels      map[string]string   `yaml:"labels"`
	Lines       string              `yaml:"lines"`

	// forest
	Estimate string `yaml:"estimate"`
	Label    string `yaml:"label"`
	Low      string `yaml:"low"`
	High     string `yaml:"high"`

	// summary
	Inputs []Input `yaml:"inputs"`
	Scale  string  `yaml:"scale"`

	// reach
	Column string `yaml:"column"`

	kind chart.Kind
}

// ChartKind returns the parsed kind.
func (c *ChartDef) ChartKind() chart.Kind {
	return c.kind
}

// Catalog is the set of pages.
type Catalog struct {
	pages  []*Page
	bySlug map[string]*Page
	theme  *chart.Theme
}

// Load parses the embedded pages.
func Load() (*Catalog, error) {
	entries, err := fs.ReadDir(pagesFS, "pages")
	if err != nil {
		return nil, fmt.Errorf("read embedded pages: %w", err)
	}
	docs := make([][]byte, 0, len(entries))
	for _, e := range entries {
		b, err := pagesFS.ReadFile(path.Join("pages", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		docs = append(docs, b)
	}
	return Parse(chart.DefaultTheme(), docs...)
}

// Parse decodes page documents against a theme.
func Parse(theme *chart.Theme, docs ...[]byte) (*Catalog, error) {
	c := &Catalog{bySlug: make(map[string]*Page), theme: theme}
	for _, doc := range docs {
		dec := yaml.NewDecoder(bytes.NewReader(doc))
		dec.KnownFields(true)
		for {
			var p Page
			if err := dec.Decode(&p); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("parse page: %w", err)
			}
			if err := c.add(&p); err != nil {
				return nil, err
			}
		}
	}
	sort.SliceStable(c.pages, func(i, j int) bool { return c.pages[i].Order < c.pages[j].Order })
	return c, nil
}

func (c *Catalog) add(p *Page) error {
	if p.Slug == "" {
		return fmt.Errorf("page %q: slug is required", p.Title)
	}
	if _, dup := c.bySlug[p.Slug]; dup {
		return fmt.Errorf("page %q: duplicate slug", p.Slug)
	}
	if len(p.Options) == 0 {
		return fmt.Errorf("page %q: no options", p.Slug)
	}
	if p.Default == "" {
		p.Default = p.Options[0].Name
	}
	if _, err := p.Option(p.Default); err != nil {
		return fmt.Errorf("page %q: default: %w", p.Slug, err)
	}
	p.theme = pageTheme(c.theme, p)

	seen := make(map[string]bool)
	for _, o := range p.Options {
		if o.Name == "" || seen[o.Name] {
			return fmt.Errorf("page %q: option names must be unique and non-empty (%q)", p.Slug, o.Name)
		}
		seen[o.Name] = true
		keys := make(map[string]bool)
		for _, ch := range o.Charts {
			if keys[ch.Key] {
				return fmt.Errorf("page %q option %q: duplicate chart key %q", p.Slug, o.Name, ch.Key)
			}
			keys[ch.Key] = true
			if err := ch.validate(p.theme); err != nil {
				return fmt.Errorf("page %q option %q chart %q: %w", p.Slug, o.Name, ch.Key, err)
			}
		}
	}

	c.pages = append(c.pages, p)
	c.bySlug[p.Slug] = p
	return nil
}

func (c *ChartDef) validate(theme *chart.Theme) error {
	if c.Key == "" {
		return errors.New("key is required")
	}
	k, err := chart.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	c.kind = k

	if c.Lines != "" && theme.LineSet(c.Lines) == nil {
		return fmt.Errorf("unknown line set %q", c.Lines)
	}
	if c.Translation != "" && theme.Translation(c.Translation) == nil {
		return fmt.Errorf("unknown translation %q", c.Translation)
	}

	switch k {
	case chart.KindBar:
		if c.Query == "" || c.X == "" || c.Y == "" {
			return errors.New("bar needs query, x and y")
		}
		switch chart.Orientation(c.Orientation) {
		case "", chart.Horizontal, chart.Vertical:
		default:
			return fmt.Errorf("unknown orientation %q", c.Orientation)
		}
		switch chart.TextKind(c.TextKind) {
		case "", chart.TextString, chart.TextFloat:
		default:
			return fmt.Errorf("unknown text kind %q", c.TextKind)
		}
	case chart.KindForest:
		if c.Query == "" || c.Estimate == "" || c.Label == "" || c.Low == "" || c.High == "" {
			return errors.New("forest needs query, estimate, label, low and high")
		}
	case chart.KindSummary:
		if len(c.Inputs) == 0 {
			return errors.New("summary needs inputs")
		}
		if c.Disaggregate != "" {
			return chart.ErrNotSplittable
		}
		if c.Scale != "" && theme.Scale(c.Scale) == nil {
			return fmt.Errorf("unknown scale %q", c.Scale)
		}
	case chart.KindReach:
		if c.Query == "" || c.Column == "" {
			return errors.New("reach needs query and column")
		}
		if c.Disaggregate != "" {
			return chart.ErrNotSplittable
		}
	}
	return nil
}

// pageTheme layers page overrides over the shared theme.
func pageTheme(base *chart.Theme, p *Page) *chart.Theme {
	if base == nil {
		base = &chart.Theme{}
	}
	t := *base
	if len(p.Palettes) > 0 {
		t.Palettes = make(map[string]map[string]string, len(base.Palettes)+len(p.Palettes))
		for k, v := range base.Palettes {
			t.Palettes[k] = v
		}
		for k, v := range p.Palettes {
			t.Palettes[k] = v
		}
	}
	if len(p.Orders) > 0 {
		t.Orders = make(map[string][]string, len(base.Orders)+len(p.Orders))
		for k, v := range base.Orders {
			t.Orders[k] = v
		}
		for k, v := range p.Orders {
			t.Orders[k] = v
		}
	}
	return &t
}

// Pages returns the pages in display order.
func (c *Catalog) Pages() []*Page {
	return c.pages
}

// Page looks up a page by slug.
func (c *Catalog) Page(slug string) (*Page, error) {
	p, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
	}
	return p, nil
}

// Option looks up an option by name; an empty name selects the default.
func (p *Page) Option(name string) (*Option, error) {
	if name == "" {
		name = p.Default
	}
	for _, o := range p.Options {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on page %q", ErrUnknownOption, name, p.Slug)
}

// OptionNames lists the option names in declaration order.
func (p *Page) OptionNames() []string {
	out := make([]string, len(p.Options))
	for i, o := range p.Options {
		out[i] = o.Name
	}
	return out
}

// Chart looks up a chart of an option by key.
func (o *Option) Chart(key string) (*ChartDef, bool) {
	for _, c := range o.Charts {
		if c.Key == key {
			return c, true
		}
	}
	return nil, false
}
