package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/sethvargo/go-retry"
)

// Fetcher returns the raw xlsx bytes of a sheet.
type Fetcher interface {
	Fetch(ctx context.Context, s Sheet) ([]byte, error)
}

// TokenProvider supplies OAuth2 access tokens. *auth.Credentials satisfies it.
type TokenProvider interface {
	Token(ctx context.Context) (*auth.Token, error)
}

// Credentials locates a service-account credential. JSON takes precedence
// over File; with neither, application default credentials are used.
type Credentials struct {
	File string
	JSON []byte
}

// NewCredentials resolves service-account credentials scoped for Drive.
func NewCredentials(c Credentials) (*auth.Credentials, error) {
	opts := &credentials.DetectOptions{Scopes: []string{DriveScope}}
	switch {
	case len(c.JSON) > 0:
		opts.CredentialsJSON = c.JSON
	case c.File != "":
		opts.CredentialsFile = c.File
	}
	creds, err := credentials.DetectDefault(opts)
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	return creds, nil
}

// DriveConfig configures a DriveFetcher.
type DriveConfig struct {
	Tokens    TokenProvider
	Client    *http.Client
	ExportURL string
	FilesURL  string
	// Retries is the number of retries after the first attempt for 429 and 5xx responses.
	Retries int
	// Backoff is the base delay of the exponential backoff.
	Backoff time.Duration
	Logger  *slog.Logger
}

// DriveFetcher downloads sheets from Google Drive.
type DriveFetcher struct {
	tokens    TokenProvider
	client    *http.Client
	exportURL string
	filesURL  string
	retries   int
	backoff   time.Duration
	logger    *slog.Logger
}

// NewDriveFetcher creates a fetcher with defaults filled in.
func NewDriveFetcher(cfg DriveConfig) *DriveFetcher {
	d := &DriveFetcher{
		tokens:    cfg.Tokens,
		client:    cfg.Client,
		exportURL: cfg.ExportURL,
		filesURL:  cfg.FilesURL,
		retries:   cfg.Retries,
		backoff:   cfg.Backoff,
		logger:    cfg.Logger,
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: 60 * time.Second}
	}
	if d.exportURL == "" {
		d.exportURL = DefaultExportURL
	}
	if d.filesURL == "" {
		d.filesURL = DefaultFilesURL
	}
	if d.retries < 0 {
		d.retries = 0
	}
	if d.backoff <= 0 {
		d.backoff = 500 * time.Millisecond
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Fetch downloads one sheet, retrying throttled and server errors.
func (d *DriveFetcher) Fetch(ctx context.Context, s Sheet) ([]byte, error) {
	target, err := DownloadURL(s, d.exportURL, d.filesURL)
	if err != nil {
		return nil, err
	}

	var body []byte
	backoff := retry.WithMaxRetries(uint64(d.retries), retry.NewExponential(d.backoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := d.get(ctx, target)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.Temporary() {
				d.logger.Debug("drive fetch retry", "sheet", s.Name, "attempt", attempt, "status", httpErr.StatusCode)
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.Name, err)
	}
	d.logger.Debug("fetched sheet", "sheet", s.Name, "bytes", len(body), "attempts", attempt)
	return body, nil
}

func (d *DriveFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if d.tokens != nil {
		tok, err := d.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("drive token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.Value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{URL: target, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// DirFetcher reads sheets from a local directory: <dir>/<key>, falling back
// to <dir>/<name>.xlsx.
type DirFetcher struct {
	Dir string
}

// Fetch reads the sheet file.
func (d DirFetcher) Fetch(_ context.Context, s Sheet) ([]byte, error) {
	for _, p := range d.candidates(s) {
		b, err := os.ReadFile(p) //nolint:gosec // paths come from configuration
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", s.Name, err)
		}
	}
	return nil, fmt.Errorf("read %s: no file for key %q in %s: %w", s.Name, s.Key, d.Dir, os.ErrNotExist)
}

func (d DirFetcher) candidates(s Sheet) []string {
	var out []string
	if s.Key != "" {
		out = append(out, filepath.Join(d.Dir, s.Key))
		if filepath.Ext(s.Key) == "" {
			out = append(out, filepath.Join(d.Dir, s.Key+".xlsx"))
		}
	}
	return append(out, filepath.Join(d.Dir, s.Name+".xlsx"))
}

// Path returns the file a sheet would be read from, or "" when none exists.
func (d DirFetcher) Path(s Sheet) string {
	for _, p := range d.candidates(s) {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
