package common

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/catalog"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestNav(t *testing.T) {
	pages := []*catalog.Page{
		{Slug: "beneficiaries", Title: "Beneficiaries"},
		{Slug: "outcomes", Title: "Outcomes & <Impact>"},
	}

	html := render(t, Nav(pages, "/pages/outcomes"))

	assert.Contains(t, html, `<a href="/pages/beneficiaries">Beneficiaries</a>`)
	assert.Contains(t, html, `<a href="/pages/outcomes" class="active">Outcomes &amp; &lt;Impact&gt;</a>`)
	assert.Contains(t, html, `<a href="/data">Data</a>`)
}

func TestLayout(t *testing.T) {
	html := render(t, Layout(`"Data"`, Title("Loaded sheets")))

	assert.Contains(t, html, "<title>&#34;Data&#34; - Evaluation Dashboard</title>")
	assert.Contains(t, html, `<body><div class="title">Loaded sheets</div></body>`)
	assert.Contains(t, html, "/static/")
}
