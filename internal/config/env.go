package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment overrides applied after the config file.
const (
	EnvAPIBaseURL = "TRACEVIEW_API_BASE_URL"
	EnvAddr       = "TRACEVIEW_ADDR"
	EnvNoColor    = "TRACEVIEW_NO_COLOR"
	EnvExporter   = "TRACEVIEW_TRACE_EXPORTER"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config fields from the environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvAPIBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.API.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvAddr); ok && strings.TrimSpace(value) != "" {
		cfg.Server.Addr = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvExporter); ok && strings.TrimSpace(value) != "" {
		cfg.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(value))
	}
	if value, ok := lookup(EnvNoColor); ok && strings.TrimSpace(value) != "" {
		noColor, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: expected boolean, got %q", EnvNoColor, value)
		}
		cfg.UI.NoColor = noColor
	}
	return nil
}
