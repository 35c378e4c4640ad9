package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"traceview/internal/config"
)

// isolateEnv stops tests from reading TRACEVIEW_* from the process environment.
func isolateEnv(t *testing.T) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(string) (string, bool) { return "", false }
	t.Cleanup(func() { lookupEnv = original })
}

// writeTestConfig writes a config pointing at baseURL and returns its path.
func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := config.ConfigPath(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`version: 1
api:
  base_url: %q
  timeout_seconds: 5
server:
  addr: "127.0.0.1:9191"
  render_wait_ms: 250
ui:
  mode: auto
  no_color: true
`, baseURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
