package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"traceview/internal/web"
)

func stubServe(t *testing.T) *web.Config {
	t.Helper()
	got := &web.Config{}
	origServe, origSignal := serveViewer, signalContext
	serveViewer = func(_ context.Context, cfg web.Config) error {
		*got = cfg
		return nil
	}
	signalContext = func() (context.Context, context.CancelFunc) {
		return context.WithCancel(context.Background())
	}
	t.Cleanup(func() {
		serveViewer = origServe
		signalContext = origSignal
	})
	return got
}

// TestServeCommandUsesConfig verifies serve forwards config values to the server layer.
func TestServeCommandUsesConfig(t *testing.T) {
	isolateEnv(t)
	got := stubServe(t)
	path := writeTestConfig(t, "http://127.0.0.1:8787")

	var stdout, stderr bytes.Buffer
	exitCode := Run([]string{"serve", "--config", path}, &stdout, &stderr)
	if exitCode != ExitOK {
		t.Fatalf("expected exit ok, got %d: %s", exitCode, stderr.String())
	}
	if got.Addr != "127.0.0.1:9191" {
		t.Fatalf("unexpected addr: %s", got.Addr)
	}
	if got.RenderWait != 250*time.Millisecond {
		t.Fatalf("unexpected render wait: %s", got.RenderWait)
	}
	if got.Source == nil || got.Logger == nil || got.TracerProvider == nil {
		t.Fatalf("expected source, logger and tracer provider to be wired")
	}
	if !strings.Contains(stdout.String(), "http://127.0.0.1:9191") {
		t.Fatalf("expected serving banner, got %q", stdout.String())
	}
}

// TestServeCommandFlagsOverrideConfig ensures flags win over the config file.
func TestServeCommandFlagsOverrideConfig(t *testing.T) {
	isolateEnv(t)
	got := stubServe(t)
	path := writeTestConfig(t, "http://127.0.0.1:8787")

	var stdout, stderr bytes.Buffer
	exitCode := Run([]string{
		"serve",
		"--config", path,
		"--addr", "127.0.0.1:5050",
		"--assets-base-url", "https://assets.example.com",
		"--api", "https://traces.example.com",
	}, &stdout, &stderr)
	if exitCode != ExitOK {
		t.Fatalf("expected exit ok, got %d: %s", exitCode, stderr.String())
	}
	if got.Addr != "127.0.0.1:5050" {
		t.Fatalf("unexpected addr: %s", got.Addr)
	}
	if got.AssetsBaseURL != "https://assets.example.com" {
		t.Fatalf("unexpected assets base url: %s", got.AssetsBaseURL)
	}
	if !strings.Contains(stdout.String(), "https://traces.example.com") {
		t.Fatalf("expected api override in banner, got %q", stdout.String())
	}
}

// TestServeCommandRejectsBadAPIURL verifies --api is validated.
func TestServeCommandRejectsBadAPIURL(t *testing.T) {
	isolateEnv(t)
	stubServe(t)
	path := writeTestConfig(t, "http://127.0.0.1:8787")

	var stdout, stderr bytes.Buffer
	exitCode := Run([]string{"serve", "--config", path, "--api", "ftp://nope"}, &stdout, &stderr)
	if exitCode != ExitError {
		t.Fatalf("expected exit error, got %d", exitCode)
	}
	if !strings.Contains(stderr.String(), "base_url") {
		t.Fatalf("expected base_url issue, got %q", stderr.String())
	}
}

// TestServeCommandRejectsArguments verifies positional arguments are refused.
func TestServeCommandRejectsArguments(t *testing.T) {
	stubServe(t)
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"serve", "extra"}, &stdout, &stderr); code != ExitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
}
