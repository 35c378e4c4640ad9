package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, root, contents string) string {
	t.Helper()
	path := ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

// TestDefaultMatchesScaffold verifies the scaffolded file decodes to the defaults.
func TestDefaultMatchesScaffold(t *testing.T) {
	cfg, err := ParseConfig([]byte(DefaultConfigYAML()))
	if err != nil {
		t.Fatalf("parse scaffold: %v", err)
	}
	Normalize(&cfg)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("scaffold differs from defaults (-want +got):\n%s", diff)
	}
	if Default().RenderWait() != 2*time.Second {
		t.Fatalf("unexpected render wait %s", Default().RenderWait())
	}
	if Default().Timeout() != 10*time.Second {
		t.Fatalf("unexpected timeout %s", Default().Timeout())
	}
}

// TestParseConfigRejectsUnknownFields verifies strict decoding.
func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig([]byte("version: 1\napi:\n  base_uri: http://x\n"))
	if err == nil || !strings.Contains(err.Error(), "base_uri") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

// TestParseConfigRejectsMultipleDocuments verifies single-document configs.
func TestParseConfigRejectsMultipleDocuments(t *testing.T) {
	_, err := ParseConfig([]byte("version: 1\n---\nversion: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "multiple YAML documents") {
		t.Fatalf("expected multiple document error, got %v", err)
	}
	if _, err := ParseConfig(nil); err == nil {
		t.Fatalf("expected empty document error")
	}
}

// TestValidateCollectsIssues verifies every bad field is reported with its path.
func TestValidateCollectsIssues(t *testing.T) {
	cfg := Default()
	cfg.Version = 2
	cfg.API.BaseURL = "ftp://example.com"
	cfg.Server.RenderWaitMS = -1
	cfg.Loader.CacheSize = -5
	cfg.UI.Mode = "fancy"
	cfg.Telemetry.Exporter = "jaeger"

	err := Validate(&cfg)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	want := []string{"version", "api.base_url", "server.render_wait_ms", "loader.cache_size", "ui.mode", "telemetry.exporter"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
}

// TestFindConfigPathWalksUpward verifies discovery from a nested directory.
func TestFindConfigPathWalksUpward(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, DefaultConfigYAML())
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find config: %v", err)
	}
	if found != path {
		t.Fatalf("expected %s, got %s", path, found)
	}
	if ProjectRoot(found) != root {
		t.Fatalf("unexpected root %s", ProjectRoot(found))
	}
}

// TestFindConfigPathMissingDirectoryFile verifies a bare .traceview dir is an error.
func TestFindConfigPathMissingDirectoryFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(ConfigDir(root), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := FindConfigPath(root)
	if err == nil || errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected a distinct error, got %v", err)
	}
}

// TestResolveFallsBackToDefaults verifies a missing config file is not an error.
func TestResolveFallsBackToDefaults(t *testing.T) {
	cfg, path, err := Resolve(ResolveOptions{StartDir: t.TempDir(), LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %s", path)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

// TestResolveAppliesEnvOverrides verifies environment values win over the file.
func TestResolveAppliesEnvOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: 1\napi:\n  base_url: http://file:1\nserver:\n  addr: 0.0.0.0:1\n")
	env := map[string]string{
		EnvAPIBaseURL: "http://env:2",
		EnvNoColor:    "true",
		EnvExporter:   "STDOUT",
	}
	cfg, path, err := Resolve(ResolveOptions{StartDir: root, LookupEnv: func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if path == "" {
		t.Fatalf("expected discovered path")
	}
	if cfg.API.BaseURL != "http://env:2" || cfg.Server.Addr != "0.0.0.0:1" || !cfg.UI.NoColor || cfg.Telemetry.Exporter != "stdout" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

// TestResolveRejectsInvalidEnv verifies a bad override fails validation.
func TestResolveRejectsInvalidEnv(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == EnvNoColor {
			return "sometimes", true
		}
		return "", false
	}
	if _, _, err := Resolve(ResolveOptions{StartDir: t.TempDir(), LookupEnv: lookup}); err == nil {
		t.Fatalf("expected error for invalid boolean")
	}
	lookup = func(key string) (string, bool) {
		if key == EnvAPIBaseURL {
			return "not a url", true
		}
		return "", false
	}
	_, _, err := Resolve(ResolveOptions{StartDir: t.TempDir(), LookupEnv: lookup})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestResolveLoadsDotEnv verifies .env next to the project root feeds overrides.
func TestResolveLoadsDotEnv(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: 1\n")
	if err := os.WriteFile(filepath.Join(root, DotEnvFileName), []byte(EnvAddr+"=127.0.0.1:9999\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(EnvAddr, "")
	os.Unsetenv(EnvAddr)

	cfg, _, err := Resolve(ResolveOptions{StartDir: root})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected .env override, got %s", cfg.Server.Addr)
	}
}

// TestWriteScaffoldRefusesOverwrite verifies init does not clobber a config.
func TestWriteScaffoldRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	path, err := WriteScaffold(root, "https://traces.example.com")
	if err != nil {
		t.Fatalf("write scaffold: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load scaffold: %v", err)
	}
	if cfg.API.BaseURL != "https://traces.example.com" {
		t.Fatalf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if _, err := WriteScaffold(root, ""); err == nil {
		t.Fatalf("expected error on second scaffold")
	}
}

// TestWriteScaffoldRejectsInvalidBaseURL verifies nothing is written for a bad URL.
func TestWriteScaffoldRejectsInvalidBaseURL(t *testing.T) {
	root := t.TempDir()
	if _, err := WriteScaffold(root, "ftp://traces"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := os.Stat(ConfigPath(root)); !os.IsNotExist(err) {
		t.Fatalf("expected no config file, got %v", err)
	}
}
