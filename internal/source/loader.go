package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// fetchLimit bounds concurrent downloads.
const fetchLimit = 4

// Tables maps a sheet name to its decoded frame.
type Tables map[string]*frame.Frame

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Sheets  []Sheet
	Fetcher Fetcher
	Logger  *slog.Logger
}

// Loader fetches and decodes every sheet once and memoises the result until
// Invalidate is called. Concurrent callers share one load.
type Loader struct {
	sheets  []Sheet
	fetcher Fetcher
	logger  *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	tables   Tables
	loadedAt time.Time

	// gen is bumped by Invalidate; a load only stores its result if gen
	// did not move while it ran.
	gen uint64
}

// NewLoader creates a loader.
func NewLoader(cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{sheets: cfg.Sheets, fetcher: cfg.Fetcher, logger: logger}
}

// Sheets returns the configured sheets.
func (l *Loader) Sheets() []Sheet {
	return l.sheets
}

// Load returns all sheets, fetching them on first use. Any fetch or decode
// error aborts the load; nothing is cached in that case.
func (l *Loader) Load(ctx context.Context) (Tables, error) {
	l.mu.RLock()
	cached := l.tables
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, shared := l.group.Do("load", func() (any, error) {
		return l.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("joined in-flight sheet load")
	}
	return v.(Tables), nil
}

func (l *Loader) load(ctx context.Context) (Tables, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("load sheets: no fetcher configured")
	}
	start := time.Now()
	l.mu.RLock()
	gen := l.gen
	l.mu.RUnlock()

	frames := make([]*frame.Frame, len(l.sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, s := range l.sheets {
		g.Go(func() error {
			data, err := l.fetcher.Fetch(gctx, s)
			if err != nil {
				return err
			}
			f, err := DecodeXLSX(data, s.SheetName)
			if err != nil {
				return fmt.Errorf("decode %s: %w", s.Name, err)
			}
			frames[i] = f
			l.logger.Debug("loaded sheet", "sheet", s.Name, "rows", f.Len(), "columns", len(f.Columns))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(Tables, len(l.sheets))
	for i, s := range l.sheets {
		tables[s.Name] = frames[i]
	}

	l.mu.Lock()
	if l.gen == gen {
		l.tables = tables
		l.loadedAt = time.Now()
	} else {
		l.logger.Debug("discarding sheet load started before invalidation")
	}
	l.mu.Unlock()

	l.logger.Info("sheets loaded", "count", len(tables), "duration", time.Since(start))
	return tables, nil
}

// Invalidate drops the cached tables; the next Load fetches again.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.gen++
	l.tables = nil
	l.loadedAt = time.Time{}
	l.mu.Unlock()
	l.group.Forget("load")
}

// LoadedAt returns when the cached tables were loaded, or the zero time.
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}
