package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/config"
	"github.com/leapstack-labs/evaldash/internal/cli/output"
	"github.com/leapstack-labs/evaldash/internal/engine"
	"github.com/leapstack-labs/evaldash/internal/source"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmd.Context(), cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that never touch the data.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		DataDir:         os.Getenv("EVALDASH_DATA_DIR"),
		Database:        os.Getenv("EVALDASH_DATABASE"),
		CredentialsFile: os.Getenv("EVALDASH_CREDENTIALS_FILE"),
		LogLevel:        getEnvOrDefault("EVALDASH_LOG_LEVEL", config.DefaultLogLevel),
		Verbose:         os.Getenv("EVALDASH_VERBOSE") == "true",
		OutputFormat:    getEnvOrDefault("EVALDASH_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Sheets:       cfg.SheetList(),
		Fetcher:      fetcher,
		DatabasePath: cfg.Database,
		Logger:       logger,
	})
}

// newFetcher reads local copies when a data directory is configured and
// downloads from Drive otherwise.
func newFetcher(_ context.Context, cfg *config.Config, logger *slog.Logger) (source.Fetcher, error) {
	if cfg.DataDir != "" {
		logger.Debug("reading sheets from data directory", "dir", cfg.DataDir)
		return source.DirFetcher{Dir: cfg.DataDir}, nil
	}

	creds, err := source.NewCredentials(source.Credentials{
		File: cfg.CredentialsFile,
		JSON: []byte(cfg.CredentialsJSON),
	})
	if err != nil {
		return nil, err
	}

	d := cfg.GetDriveConfig()
	return source.NewDriveFetcher(source.DriveConfig{
		Tokens:    creds,
		Client:    &http.Client{Timeout: d.Timeout},
		ExportURL: d.ExportURL,
		FilesURL:  d.FilesURL,
		Retries:   d.Retries,
		Logger:    logger,
	}), nil
}
