package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"traceview/internal/fixtureapi"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traceapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadConfigDefaults verifies an empty file serves the demo run.
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:8787" || !cfg.demoEnabled() || cfg.latency() != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

// TestLoadConfigDirAndLatency verifies file sources and latency are read.
func TestLoadConfigDirAndLatency(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(writeConfig(t, "server:\n  latency_ms: 150\ntraces:\n  dir: "+dir+"\n  demo: false\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.latency() != 150*time.Millisecond || cfg.demoEnabled() || cfg.Traces.Dir != dir {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

// TestLoadConfigRejectsInvalid verifies validation failures.
func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown field": "server:\n  port: 1\n",
		"no sources":    "traces:\n  demo: false\n",
		"missing dir":   "traces:\n  dir: /does/not/exist\n",
		"negative":      "server:\n  latency_ms: -1\n",
	}
	for name, content := range cases {
		if _, err := loadConfig(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

// TestSourcesPreferFiles verifies a file overrides the demo payload for the same run.
func TestSourcesPreferFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, fixtureapi.DemoRunID+".json"), []byte(`{"steps":[]}`), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	cfg := defaultConfig()
	cfg.Traces.Dir = dir
	handler := fixtureapi.NewHandler(fixtureapi.Config{Source: sourcesFor(cfg)})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+fixtureapi.DemoRunID+"/trace", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"steps":[]}` {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}
