package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/testutil"
)

func TestDecodeXLSX(t *testing.T) {
	data := testutil.Workbook(t, "Psicométricos", [][]any{
		{"Constructo", "Medición inglés", "D-cohen", "Verificado"},
		{"Prosocialidad", "Pre-Post", 0.412, true},
		{"Autoconocimiento", "nan", 3, false},
		{nil, nil, nil, nil},
		{"Regulación emocional"},
	})

	f, err := DecodeXLSX(data, "Psicométricos")
	require.NoError(t, err)

	assert.Equal(t, []string{"Constructo", "Medición inglés", "D-cohen", "Verificado"}, f.Columns)
	require.Equal(t, 3, f.Len())
	assert.Equal(t, 0.412, f.Value(0, "D-cohen"))
	assert.Nil(t, f.Value(1, "Medición inglés"))
	assert.Equal(t, int64(3), f.Value(1, "D-cohen"))
	assert.Nil(t, f.Value(2, "D-cohen"))
}

func TestDecodeXLSXMissingSheet(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]any{{"a"}})
	_, err := DecodeXLSX(data, "Psicométricos")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestDecodeXLSXFirstSheetByDefault(t *testing.T) {
	data := testutil.Workbook(t, "Datos", [][]any{{"Municipio"}, {"Calakmul"}})
	f, err := DecodeXLSX(data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Calakmul"}, f.Strings("Municipio"))
}

func TestDecodeXLSXRepeatedHeaders(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]any{
		{"Municipio", "Prioridad", "Municipio", "Municipio"},
		{"Calakmul", "Priority 1", "Hopelchén", "Mérida"},
	})

	f, err := DecodeXLSX(data, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Municipio", "Prioridad", "Municipio.1", "Municipio.2"}, f.Columns)
	assert.Equal(t, "Hopelchén", f.Value(0, "Municipio.1"))
}

func TestDedupeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"repeat", []string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{"suffix already taken", []string{"a", "a.1", "a"}, []string{"a", "a.1", "a.2"}},
		{"generated names", []string{"column1", "column1"}, []string{"column1", "column1.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupeHeader(tt.in))
		})
	}
}

func TestParseCell(t *testing.T) {
	assert.Nil(t, parseCell(""))
	assert.Nil(t, parseCell(" NaN "))
	assert.Equal(t, int64(25), parseCell("25"))
	assert.Equal(t, 0.5, parseCell("0.5"))
	assert.Equal(t, true, parseCell("TRUE"))
	assert.Equal(t, "Yucat\u00e1n", parseCell("Yucata\u0301n"))
}

func TestDownloadURL(t *testing.T) {
	u, err := DownloadURL(Sheet{Name: "fls", Key: "abc", Type: TypeGSheets}, DefaultExportURL, DefaultFilesURL)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/export?exportFormat=xlsx&id=abc", u)

	u, err = DownloadURL(Sheet{Name: "alcance", Key: "xyz", Type: TypeExcel}, DefaultExportURL, DefaultFilesURL)
	require.NoError(t, err)
	assert.Equal(t, "https://www.googleapis.com/drive/v3/files/xyz?alt=media", u)

	_, err = DownloadURL(Sheet{Name: "x", Key: "k", Type: TypeLocal}, DefaultExportURL, DefaultFilesURL)
	assert.Error(t, err)
}

func TestSheetValidate(t *testing.T) {
	for _, s := range DefaultSheets() {
		assert.NoError(t, s.Validate(), s.Name)
	}
	assert.Error(t, Sheet{Name: "a", Type: TypeExcel}.Validate())
	assert.Error(t, Sheet{Name: "a", Key: "k", Type: "dropbox"}.Validate())
	assert.Error(t, Sheet{Name: "a", Key: "k", Type: TypeExcel, Engine: "pandas"}.Validate())
}

type staticToken string

func (s staticToken) Token(context.Context) (*auth.Token, error) {
	return &auth.Token{Value: string(s)}, nil
}

func TestDriveFetcherSendsBearerToken(t *testing.T) {
	payload := testutil.Workbook(t, "Sheet1", [][]any{{"Municipio"}, {"Calakmul"}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/files/k1", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	d := NewDriveFetcher(DriveConfig{
		Tokens:   staticToken("secret"),
		FilesURL: srv.URL + "/files",
		Logger:   testutil.NewTestLogger(t),
	})
	got, err := d.Fetch(context.Background(), Sheet{Name: "alcance", Key: "k1", Type: TypeExcel})
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDriveFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDriveFetcher(DriveConfig{ExportURL: srv.URL, Retries: 3, Backoff: time.Millisecond})
	got, err := d.Fetch(context.Background(), Sheet{Name: "fls", Key: "k", Type: TypeGSheets})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDriveFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDriveFetcher(DriveConfig{ExportURL: srv.URL, Retries: 3, Backoff: time.Millisecond})
	_, err := d.Fetch(context.Background(), Sheet{Name: "fls", Key: "k", Type: TypeGSheets})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alcance.xlsx"), []byte("by-name"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key1"), []byte("by-key"), 0o600))

	d := DirFetcher{Dir: dir}
	got, err := d.Fetch(context.Background(), Sheet{Name: "alcance", Key: "missing"})
	require.NoError(t, err)
	assert.Equal(t, []byte("by-name"), got)

	got, err = d.Fetch(context.Background(), Sheet{Name: "other", Key: "key1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("by-key"), got)

	_, err = d.Fetch(context.Background(), Sheet{Name: "none", Key: "none"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type countingFetcher struct {
	calls atomic.Int32
	data  map[string][]byte
	fail  error
}

func (c *countingFetcher) Fetch(_ context.Context, s Sheet) ([]byte, error) {
	c.calls.Add(1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.data[s.Name], nil
}

func TestLoaderMemoisesAndInvalidates(t *testing.T) {
	fetcher := &countingFetcher{data: map[string][]byte{
		"alcance":    testutil.Workbook(t, "Sheet1", [][]any{{"Municipio"}, {"Calakmul"}}),
		"municipios": testutil.Workbook(t, "Sheet1", [][]any{{"Municipio", "Prioridad"}, {"Calakmul", "Priority 1"}}),
	}}
	l := NewLoader(LoaderConfig{
		Sheets: []Sheet{
			{Name: "alcance", Key: "a", SheetName: "Sheet1", Type: TypeLocal},
			{Name: "municipios", Key: "m", SheetName: "Sheet1", Type: TypeLocal},
		},
		Fetcher: fetcher,
		Logger:  testutil.NewTestLogger(t),
	})

	tables, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables["municipios"].Len())
	assert.False(t, l.LoadedAt().IsZero())

	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	l.Invalidate()
	assert.True(t, l.LoadedAt().IsZero())
	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), fetcher.calls.Load())
}

func TestLoaderFetchErrorAbortsLoad(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(LoaderConfig{
		Sheets:  []Sheet{{Name: "alcance", Key: "a", Type: TypeLocal}},
		Fetcher: &countingFetcher{fail: boom},
	})
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, l.LoadedAt().IsZero())
}

type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
	data    []byte
}

func (g *gatedFetcher) Fetch(ctx context.Context, _ Sheet) ([]byte, error) {
	if g.calls.Add(1) == 1 {
		g.started <- struct{}{}
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.data, nil
}

func TestLoaderDiscardsLoadStartedBeforeInvalidate(t *testing.T) {
	fetcher := &gatedFetcher{
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
		data:    testutil.Workbook(t, "Sheet1", [][]any{{"Municipio"}, {"Calakmul"}}),
	}
	l := NewLoader(LoaderConfig{
		Sheets:  []Sheet{{Name: "municipios", Key: "m", SheetName: "Sheet1", Type: TypeLocal}},
		Fetcher: fetcher,
		Logger:  testutil.NewTestLogger(t),
	})

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background())
		done <- err
	}()

	select {
	case <-fetcher.started:
	case <-time.After(5 * time.Second):
		t.Fatal("load never started")
	}
	l.Invalidate()
	close(fetcher.gate)
	require.NoError(t, <-done)

	assert.True(t, l.LoadedAt().IsZero(), "stale load must not be cached")

	tables, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tables["municipios"].Len())
	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.False(t, l.LoadedAt().IsZero())
}
