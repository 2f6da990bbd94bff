package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/catalog"
	"github.com/leapstack-labs/evaldash/internal/chart"
	"github.com/leapstack-labs/evaldash/internal/source"
	"github.com/leapstack-labs/evaldash/internal/testutil"
)

type countingFetcher struct {
	source.DirFetcher
	calls atomic.Int32
}

func (c *countingFetcher) Fetch(ctx context.Context, s source.Sheet) ([]byte, error) {
	c.calls.Add(1)
	return c.DirFetcher.Fetch(ctx, s)
}

func newEngine(t *testing.T) (*Engine, *countingFetcher) {
	t.Helper()
	fetcher := &countingFetcher{DirFetcher: source.DirFetcher{Dir: testutil.WriteDataset(t)}}
	e, err := New(Config{Fetcher: fetcher, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, fetcher
}

func TestNewRequiresFetcher(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRenderDefaultOption(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	sections, err := e.Render(ctx, "beneficiaries", "")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "states", sections[0].Key)
	assert.Equal(t, chart.KindBar, sections[0].Panel.Kind)
	assert.False(t, e.RefreshedAt().IsZero())
}

func TestRenderOutcomesHorizontalIsTiled(t *testing.T) {
	e, _ := newEngine(t)

	sections, err := e.Render(context.Background(), "outcomes", "Outcome Graphs (Horizontal)")
	require.NoError(t, err)
	require.Len(t, sections, 4)

	// two constructs for professionals: one row of two tiles
	require.Len(t, sections[0].Panel.Rows, 1)
	assert.Len(t, sections[0].Panel.Rows[0].Tiles, 2)
	// one construct for the leadership training: a single centred tile
	require.Len(t, sections[1].Panel.Rows, 1)
	assert.Equal(t, []float64{0.25, 0.5, 0.25}, sections[1].Panel.Rows[0].Widths)
}

func TestRenderReachLegend(t *testing.T) {
	e, _ := newEngine(t)

	sections, err := e.Render(context.Background(), "beneficiaries", "Reached Municipalities")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	fig := sections[1].Panel.Figures()[0]
	assert.Equal(t, "Priority municipalities not reached:<br>Tizimín", fig.Layout.Annotations[0].Text)
}

func TestRenderSummary(t *testing.T) {
	e, _ := newEngine(t)

	sections, err := e.Render(context.Background(), "outcomes", "Outcome Summary Table")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	fig := sections[0].Panel.Figures()[0]
	require.Len(t, fig.Data, 1)
	assert.Len(t, fig.Data[0].Z, 5)
}

func TestRenderUnknown(t *testing.T) {
	e, fetcher := newEngine(t)
	ctx := context.Background()

	_, err := e.Render(ctx, "nope", "")
	assert.ErrorIs(t, err, catalog.ErrUnknownPage)
	assert.Equal(t, int32(0), fetcher.calls.Load(), "unknown pages must not trigger a load")

	_, err = e.Render(ctx, "outcomes", "nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownOption)
}

func TestTile(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	fig, err := e.Tile(ctx, "outcomes", "Outcome Graphs (Horizontal)", "Professionals", 1)
	require.NoError(t, err)
	assert.Equal(t, "Self awareness", fig.Layout.Title.Text)

	_, err = e.Tile(ctx, "outcomes", "Outcome Graphs (Horizontal)", "Professionals", 5)
	assert.ErrorIs(t, err, ErrUnknownTile)

	_, err = e.Tile(ctx, "outcomes", "Outcome Graphs (Horizontal)", "Nobody", 0)
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestRefreshMemoisesUnlessForced(t *testing.T) {
	e, fetcher := newEngine(t)
	ctx := context.Background()
	sheets := int32(len(source.DefaultSheets()))

	require.NoError(t, e.Refresh(ctx, false))
	require.NoError(t, e.Refresh(ctx, false))
	assert.Equal(t, sheets, fetcher.calls.Load())

	require.NoError(t, e.Refresh(ctx, true))
	assert.Equal(t, 2*sheets, fetcher.calls.Load())
}

func TestQueryAndTables(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	tables, err := e.Tables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, len(source.DefaultSheets()))

	f, err := e.Query(ctx, `SELECT count(*) AS n FROM alcance`)
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Value(0, "n"))
}

func TestConcurrentRenders(t *testing.T) {
	e, fetcher := newEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Render(ctx, "beneficiaries", "Direct Beneficiaries")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, fetcher.calls.Load(), int32(2*len(source.DefaultSheets())))
}
