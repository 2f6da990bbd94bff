package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/evaldash/internal/source"
)

// LogLevels accepted by log_level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// OutputFormats accepted by output.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.LogLevel, LogLevels) {
		errs = append(errs, fmt.Errorf("log_level %q must be one of %s", c.LogLevel, strings.Join(LogLevels, ", ")))
	}
	if c.OutputFormat != "" && !oneOf(c.OutputFormat, OutputFormats) {
		errs = append(errs, fmt.Errorf("output %q must be one of %s", c.OutputFormat, strings.Join(OutputFormats, ", ")))
	}
	if ui := c.GetUIConfig(); ui.Port < 1 || ui.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port %d is out of range", ui.Port))
	}
	if d := c.GetDriveConfig(); d.Retries < 0 {
		errs = append(errs, fmt.Errorf("drive.retries must not be negative"))
	}

	sheets := c.SheetList()
	if len(sheets) == 0 {
		errs = append(errs, errors.New("at least one sheet is required"))
	}
	needsDrive := false
	for _, s := range sheets {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.Type == source.TypeLocal && c.DataDir == "" {
			errs = append(errs, fmt.Errorf("sheet %q is local but data_dir is not set", s.Name))
		}
		if s.Type != source.TypeLocal {
			needsDrive = true
		}
	}
	if needsDrive && c.DataDir == "" && !c.HasCredentials() {
		errs = append(errs, errors.New("drive sheets need credentials_file, credentials_json or GOOGLE_APPLICATION_CREDENTIALS (or set data_dir to read local copies)"))
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether a service-account credential is configured.
func (c *Config) HasCredentials() bool {
	return c.CredentialsFile != "" || c.CredentialsJSON != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// ValidateDirectories checks if configured directories exist.
func (c *Config) ValidateDirectories() error {
	if c.DataDir == "" {
		return nil
	}
	info, err := os.Stat(c.DataDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s\nHint: Create the directory or use --data-dir to specify a different path", c.DataDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("data_dir is not a directory: %s", c.DataDir)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
