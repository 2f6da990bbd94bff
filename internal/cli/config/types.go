// Package config provides configuration management for the evaldash CLI.
//
// Settings are layered: built-in defaults, then evaldash.yaml, then
// EVALDASH_ environment variables, then explicitly set command-line flags.
package config

import (
	"sort"
	"time"

	"github.com/leapstack-labs/evaldash/internal/source"
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
}

// DriveConfig holds the Google Drive download settings.
type DriveConfig struct {
	ExportURL string        `koanf:"export_url"`
	FilesURL  string        `koanf:"files_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
}

// SheetConfig declares one spreadsheet to load. The map key it is stored
// under becomes the table name.
type SheetConfig struct {
	Key    string `koanf:"key"`
	Sheet  string `koanf:"sheet"`
	Type   string `koanf:"type"`
	Engine string `koanf:"engine"`
}

// Config holds all CLI configuration options.
type Config struct {
	DataDir         string                 `koanf:"data_dir"`
	Database        string                 `koanf:"database"`
	CredentialsFile string                 `koanf:"credentials_file"`
	CredentialsJSON string                 `koanf:"credentials_json"`
	LogLevel        string                 `koanf:"log_level"`
	Verbose         bool                   `koanf:"verbose"`
	OutputFormat    string                 `koanf:"output"`
	UI              *UIConfig              `koanf:"ui"`
	Drive           *DriveConfig           `koanf:"drive"`
	Sheets          map[string]SheetConfig `koanf:"sheets"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultPort          = 8765
	DefaultLogLevel      = "warn"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultDriveTimeout  = 60 * time.Second
	DefaultDriveRetries  = 3
	DefaultSessionSecret = "evaldash-dev-secret-change-in-production" //nolint:gosec
)

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:          DefaultPort,
		AutoOpen:      true,
		Watch:         true,
		SessionSecret: DefaultSessionSecret,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.SessionSecret == "" {
		ui.SessionSecret = DefaultSessionSecret
	}
	return ui
}

// GetDriveConfig returns the Drive config with defaults applied.
func (c *Config) GetDriveConfig() *DriveConfig {
	if c.Drive == nil {
		c.Drive = &DriveConfig{}
	}
	d := c.Drive
	if d.ExportURL == "" {
		d.ExportURL = source.DefaultExportURL
	}
	if d.FilesURL == "" {
		d.FilesURL = source.DefaultFilesURL
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultDriveTimeout
	}
	return d
}

// SheetList returns the configured sheets sorted by name, or the built-in
// evaluation sheets when none are configured.
func (c *Config) SheetList() []source.Sheet {
	if len(c.Sheets) == 0 {
		return source.DefaultSheets()
	}
	names := make([]string, 0, len(c.Sheets))
	for name := range c.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]source.Sheet, 0, len(names))
	for _, name := range names {
		s := c.Sheets[name]
		out = append(out, source.Sheet{
			Name:      name,
			Key:       s.Key,
			SheetName: s.Sheet,
			Type:      source.SheetType(s.Type),
			Engine:    s.Engine,
		})
	}
	return out
}
