package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const configTemplate = `version: 1
api:
  base_url: %s
  timeout_seconds: 10

server:
  addr: "127.0.0.1:8080"
  render_wait_ms: 2000

loader:
  cache_size: 64
  max_payload_bytes: 33554432

ui:
  mode: auto
  no_color: false

telemetry:
  exporter: none
  service_name: traceview
`

// DefaultConfigYAML returns the scaffolded config document.
func DefaultConfigYAML() string {
	return renderScaffold(DefaultBaseURL)
}

func renderScaffold(apiBaseURL string) string {
	if strings.TrimSpace(apiBaseURL) == "" {
		apiBaseURL = DefaultBaseURL
	}
	return fmt.Sprintf(configTemplate, strconv.Quote(strings.TrimSpace(apiBaseURL)))
}

// WriteScaffold creates .traceview/config.yml under root unless it exists.
// An empty apiBaseURL uses the default trace API address.
func WriteScaffold(root, apiBaseURL string) (string, error) {
	path := ConfigPath(root)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat config: %w", err)
	}
	content := renderScaffold(apiBaseURL)
	cfg, err := ParseConfig([]byte(content))
	if err != nil {
		return "", err
	}
	if err := Validate(&cfg); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
