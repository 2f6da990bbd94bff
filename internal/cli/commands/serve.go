package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/config"
	"github.com/leapstack-labs/evaldash/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the evaluation dashboard",
		Long: `Start a local web server with the evaluation dashboard.

The spreadsheets are loaded once at startup. Use the reload button, POST /reload,
or --watch with a local data directory to pick up new data.`,
		Example: `  # Serve on the default port
  evaldash serve

  # Serve local copies of the sheets and reload when they change
  evaldash serve --data-dir ./data --watch

  # Start without auto-opening browser
  evaldash serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload when a workbook in the data directory changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	// Get UI config with defaults
	uiCfg := cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	r.Muted("Loading sheets...")
	if err := cmdCtx.Engine.Refresh(cmd.Context(), false); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	server := ui.NewServer(ui.Config{
		Engine:        cmdCtx.Engine,
		Port:          port,
		SessionSecret: uiCfg.SessionSecret,
		Watch:         watch,
		DataDir:       cfg.DataDir,
		Logger:        cmdCtx.Logger,
	})

	if uiCfg.SessionSecret == config.DefaultSessionSecret {
		r.Warning("using the built-in session secret; set ui.session_secret for shared deployments")
	}

	// Open browser if configured
	if autoOpen {
		go openBrowser(server.URL())
	}

	r.Printf("Serving the dashboard on %s\n", server.URL())
	r.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
