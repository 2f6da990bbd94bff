package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaldash/internal/source"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "evaldash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EVALDASH_TEST_SECRET", "s3cret")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no vars", "plain", "plain"},
		{"single var", "${EVALDASH_TEST_SECRET}", "s3cret"},
		{"embedded", "pre-${EVALDASH_TEST_SECRET}-post", "pre-s3cret-post"},
		{"unset var kept", "${EVALDASH_TEST_MISSING}", "${EVALDASH_TEST_MISSING}"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"EVALDASH_DATA_DIR", "data_dir"},
		{"EVALDASH_LOG_LEVEL", "log_level"},
		{"EVALDASH_UI_PORT", "ui.port"},
		{"EVALDASH_UI_SESSION_SECRET", "ui.session_secret"},
		{"EVALDASH_DRIVE_RETRIES", "drive.retries"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPort, cfg.GetUIConfig().Port)
	assert.True(t, cfg.GetUIConfig().AutoOpen)
	assert.Equal(t, DefaultSessionSecret, cfg.GetUIConfig().SessionSecret)
	assert.Equal(t, DefaultDriveRetries, cfg.GetDriveConfig().Retries)
	assert.Equal(t, DefaultDriveTimeout, cfg.GetDriveConfig().Timeout)
	assert.Equal(t, source.DefaultExportURL, cfg.GetDriveConfig().ExportURL)
	assert.Equal(t, source.DefaultSheets(), cfg.SheetList())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Setenv("EVALDASH_TEST_SESSION", "from-env-var")
	path := writeConfig(t, dir, `data_dir: data
database: evaldash.duckdb
ui:
  port: 9000
  auto_open: false
  session_secret: ${EVALDASH_TEST_SESSION}
drive:
  timeout: 5s
  retries: 1
sheets:
  beta:
    key: b.xlsx
    type: local
  alpha:
    key: 1abc
    sheet: Sheet1
    type: gsheets
    engine: calamine
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "evaldash.duckdb"), cfg.Database)
	assert.Equal(t, 9000, cfg.GetUIConfig().Port)
	assert.False(t, cfg.GetUIConfig().AutoOpen)
	assert.Equal(t, "from-env-var", cfg.GetUIConfig().SessionSecret)
	assert.Equal(t, 5*time.Second, cfg.GetDriveConfig().Timeout)
	assert.Equal(t, 1, cfg.GetDriveConfig().Retries)

	sheets := cfg.SheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, source.Sheet{Name: "alpha", Key: "1abc", SheetName: "Sheet1", Type: source.TypeGSheets, Engine: "calamine"}, sheets[0])
	assert.Equal(t, "beta", sheets[1].Name)
	assert.Equal(t, source.TypeLocal, sheets[1].Type)
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	path := writeConfig(t, root, "log_level: debug\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	// temp dirs may sit behind a symlink
	assert.Equal(t, filepath.Base(path), filepath.Base(GetConfigFileUsed()))
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Precedence(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-level", "", "log level")
		flags.String("credentials", "", "credentials file")
		flags.String("data-dir", "", "data directory")
		return flags
	}

	t.Run("env overrides file", func(t *testing.T) {
		ResetConfig()
		path := writeConfig(t, t.TempDir(), "log_level: info\n")
		t.Setenv("EVALDASH_LOG_LEVEL", "error")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	t.Run("flag overrides env and file", func(t *testing.T) {
		ResetConfig()
		path := writeConfig(t, t.TempDir(), "log_level: info\n")
		t.Setenv("EVALDASH_LOG_LEVEL", "error")
		flags := newFlags()
		require.NoError(t, flags.Set("log-level", "debug"))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("unset flag falls back to env", func(t *testing.T) {
		ResetConfig()
		path := writeConfig(t, t.TempDir(), "log_level: info\n")
		t.Setenv("EVALDASH_LOG_LEVEL", "error")

		cfg, err := LoadConfig(path, newFlags())
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	t.Run("nested env key", func(t *testing.T) {
		ResetConfig()
		t.Chdir(t.TempDir())
		t.Setenv("EVALDASH_UI_PORT", "9100")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.GetUIConfig().Port)
	})

	t.Run("flag paths resolve against the working directory", func(t *testing.T) {
		ResetConfig()
		cfgDir := t.TempDir()
		path := writeConfig(t, cfgDir, "data_dir: from_file\n")
		work := t.TempDir()
		t.Chdir(work)
		cwd, err := os.Getwd()
		require.NoError(t, err)

		flags := newFlags()
		require.NoError(t, flags.Set("data-dir", "from_flag"))
		require.NoError(t, flags.Set("credentials", "sa.json"))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "from_flag"), cfg.DataDir)
		assert.Equal(t, filepath.Join(cwd, "sa.json"), cfg.CredentialsFile)
	})
}

func TestLoadConfig_BadFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "ui: [not, a, map\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	base := func() *Config {
		return &Config{LogLevel: "info", OutputFormat: "auto", DataDir: "/data"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid with data dir", mutate: func(*Config) {}},
		{
			name:   "valid drive with credentials",
			mutate: func(c *Config) { c.DataDir = ""; c.CredentialsFile = "/sa.json" },
		},
		{
			name:    "drive without credentials",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "need credentials",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "log_level",
		},
		{
			name:    "bad output",
			mutate:  func(c *Config) { c.OutputFormat = "yaml" },
			wantErr: "output",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.UI = &UIConfig{Port: 70000} },
			wantErr: "ui.port",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Drive = &DriveConfig{Retries: -1} },
			wantErr: "drive.retries",
		},
		{
			name: "sheet without key",
			mutate: func(c *Config) {
				c.Sheets = map[string]SheetConfig{"a": {Type: "local"}}
			},
			wantErr: "key is required",
		},
		{
			name: "unknown sheet type",
			mutate: func(c *Config) {
				c.Sheets = map[string]SheetConfig{"a": {Key: "k", Type: "csv"}}
			},
			wantErr: "unknown type",
		},
		{
			name: "unknown engine",
			mutate: func(c *Config) {
				c.Sheets = map[string]SheetConfig{"a": {Key: "k", Type: "excel", Engine: "pandas"}}
			},
			wantErr: "unknown engine",
		},
		{
			name: "local sheet without data dir",
			mutate: func(c *Config) {
				c.DataDir = ""
				c.Sheets = map[string]SheetConfig{"a": {Key: "a.xlsx", Type: "local"}}
			},
			wantErr: "data_dir is not set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(filePath, nil, 0600))

	assert.NoError(t, (&Config{}).ValidateDirectories())
	assert.NoError(t, (&Config{DataDir: dir}).ValidateDirectories())
	assert.ErrorContains(t, (&Config{DataDir: filepath.Join(dir, "missing")}).ValidateDirectories(), "does not exist")
	assert.ErrorContains(t, (&Config{DataDir: filePath}).ValidateDirectories(), "not a directory")
}
