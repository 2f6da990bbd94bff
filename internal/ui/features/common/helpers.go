// Package common provides shared components for UI features.
package common

import (
	"net/url"

	"github.com/leapstack-labs/evaldash/internal/catalog"
)

// AppName is shown in every browser title.
const AppName = "Evaluation Dashboard"

// DataPath is the data browser.
const DataPath = "/data"

// PagePath is the URL of a dashboard page.
func PagePath(slug string) string {
	return "/pages/" + url.PathEscape(slug)
}

// NavLink is one entry of the sidebar navigation.
type NavLink struct {
	Href   string
	Text   string
	Active bool
}

func navLinks(pages []*catalog.Page, active string) []NavLink {
	links := make([]NavLink, 0, len(pages)+1)
	for _, p := range pages {
		links = append(links, NavLink{Href: PagePath(p.Slug), Text: p.Title})
	}
	links = append(links, NavLink{Href: DataPath, Text: "Data"})
	for i := range links {
		links[i].Active = links[i].Href == active
	}
	return links
}
