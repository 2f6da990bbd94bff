package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/testutil"
	"github.com/leapstack-labs/evaldash/internal/ui/features"
	"github.com/leapstack-labs/evaldash/internal/ui/notifier"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupRouter(t *testing.T) (http.Handler, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	r := chi.NewMux()
	require.NoError(t, SetupRoutes(r, fixture.Engine, fixture.SessionStore, fixture.Notifier, testutil.NewTestLogger(t)))
	return r, fixture
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func tileURL(page, key string, tile, ext, option string) string {
	u := "/pages/" + page + "/charts/" + key + "/" + tile + "." + ext
	if option != "" {
		u += "?" + url.Values{"option": {option}}.Encode()
	}
	return u
}

// =============================================================================
// Page rendering
// =============================================================================

func TestIndexRedirectsToFirstPage(t *testing.T) {
	h, _ := setupRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/pages/beneficiaries", rec.Header().Get("Location"))
}

func TestDashboardPage(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "default option",
			path:       "/pages/outcomes",
			wantStatus: http.StatusOK,
			wantBody: []string{
				"<!doctype html>",
				"<title>Outcomes - Evaluation Dashboard</title>",
				`<div class="title">Outcomes</div>`,
				"data-init",
				"/pages/outcomes/updates",
				`value="Outcome Graphs (Horizontal)" selected`,
				`id="panel"`,
				"data-figure",
				"Outcomes Graph: Professional Development",
				">PNG</a>",
			},
		},
		{
			name:       "option from query",
			path:       "/pages/outcomes?option=Outcome+Summary+Table",
			wantStatus: http.StatusOK,
			wantBody: []string{
				`value="Outcome Summary Table" selected`,
				"heatmap",
			},
		},
		{
			name:       "unknown option falls back to default",
			path:       "/pages/beneficiaries?option=Nope",
			wantStatus: http.StatusOK,
			wantBody: []string{
				`value="Direct Beneficiaries" selected`,
				"Number of direct beneficiaries per state",
			},
		},
		{
			name:       "unknown page",
			path:       "/pages/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupRouter(t)

			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want, "response should contain %q", want)
			}
		})
	}
}

func TestDashboardPage_SetsSessionCookie(t *testing.T) {
	h, _ := setupRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/pages/beneficiaries", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionName, cookies[0].Name)
}

// =============================================================================
// Option selection
// =============================================================================

func TestSelectOption_PatchesPanelAndRemembersChoice(t *testing.T) {
	h, _ := setupRouter(t)

	body := strings.NewReader(`{"option":"Reached Municipalities"}`)
	req := httptest.NewRequest(http.MethodPost, "/pages/beneficiaries/option", body)
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rec.Body.String(), `id="panel"`)
	assert.Contains(t, rec.Body.String(), "Tizim")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// the next visit shows the remembered option
	next := httptest.NewRequest(http.MethodGet, "/pages/beneficiaries", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	page := serve(h, next)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `value="Reached Municipalities" selected`)

	// other pages keep their own default
	other := httptest.NewRequest(http.MethodGet, "/pages/outcomes", nil)
	for _, c := range cookies {
		other.AddCookie(c)
	}
	assert.Contains(t, serve(h, other).Body.String(), `value="Outcome Graphs (Horizontal)" selected`)
}

func TestSelectOption_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown option", "/pages/beneficiaries/option", `{"option":"Nope"}`, http.StatusBadRequest},
		{"bad signals", "/pages/beneficiaries/option", `{`, http.StatusBadRequest},
		{"unknown page", "/pages/nope/option", `{"option":"Nope"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupRouter(t)
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, tt.wantStatus, serve(h, req).Code)
		})
	}
}

// =============================================================================
// Tile exports
// =============================================================================

func TestTileJSON(t *testing.T) {
	h, _ := setupRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet,
		tileURL("outcomes", "Professionals", "1", "json", "Outcome Graphs (Horizontal)"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var fig chart.Figure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fig))
	require.NotNil(t, fig.Layout.Title)
	assert.Equal(t, "Self awareness", fig.Layout.Title.Text)
}

func TestTilePNG(t *testing.T) {
	h, _ := setupRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, tileURL("beneficiaries", "states", "0", "png", ""), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestTileErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"unknown chart", tileURL("beneficiaries", "nope", "0", "json", ""), http.StatusNotFound},
		{"tile out of range", tileURL("beneficiaries", "states", "3", "json", ""), http.StatusNotFound},
		{"bad tile index", tileURL("beneficiaries", "states", "x", "json", ""), http.StatusBadRequest},
		{"unknown page", tileURL("nope", "states", "0", "json", ""), http.StatusNotFound},
		{"png of a heat-map", tileURL("outcomes", "general", "0", "png", "Outcome Summary Table"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupRouter(t)
			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// Live updates
// =============================================================================

func TestPageUpdates_PushesPanelOnRefresh(t *testing.T) {
	h, fixture := setupRouter(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/pages/beneficiaries/updates", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Eventually(t, func() bool { return fixture.Notifier.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	fixture.Notifier.Broadcast(notifier.Event{Reason: "test"})

	found := make(chan bool, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), `id="panel"`) {
				found <- true
				return
			}
		}
		found <- false
	}()

	select {
	case ok := <-found:
		assert.True(t, ok, "stream should carry the re-rendered panel")
	case <-ctx.Done():
		t.Fatal("timed out waiting for panel patch")
	}
}

func TestPageUpdates_UnknownPage(t *testing.T) {
	h, _ := setupRouter(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/pages/nope/updates", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionSet(t *testing.T) {
	s := newSelectionSet()

	s.set("a", "ignored")
	assert.Equal(t, 0, s.len(), "no stream, nothing kept")

	s.open("a")
	s.open("a")
	s.set("a", "Reached Municipalities")
	assert.Equal(t, "Reached Municipalities", s.get("a"))

	s.close("a")
	assert.Equal(t, "Reached Municipalities", s.get("a"), "one stream still open")
	s.close("a")
	assert.Equal(t, 0, s.len())
	assert.Empty(t, s.get("a"))

	s.close("missing")
	assert.Equal(t, 0, s.len())
}

func TestPageUpdates_ForgetsSelectionWhenStreamCloses(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Engine, fixture.SessionStore, fixture.Notifier, testutil.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/pages/beneficiaries/updates", nil).WithContext(ctx)
	req = features.RequestWithPathParam(req, "page", "beneficiaries")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.PageUpdates(httptest.NewRecorder(), req)
	}()

	require.Eventually(t, func() bool { return h.selections.len() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop")
	}
	assert.Equal(t, 0, h.selections.len())
}
