package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for correctness.
func Validate(cfg *Config) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if cfg.Version == 0 {
		add("version", "is required")
	} else if cfg.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}

	if msg := checkBaseURL(cfg.API.BaseURL); msg != "" {
		add("api.base_url", msg)
	}
	if cfg.API.TimeoutSeconds < 0 {
		add("api.timeout_seconds", "must be >= 0")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		add("server.addr", "is required")
	}
	if cfg.Server.RenderWaitMS < 0 {
		add("server.render_wait_ms", "must be >= 0")
	}
	if base := strings.TrimSpace(cfg.Server.AssetsBaseURL); base != "" {
		if msg := checkBaseURL(base); msg != "" {
			add("server.assets_base_url", msg)
		}
	}

	if cfg.Loader.CacheSize < 0 {
		add("loader.cache_size", "must be >= 0")
	}
	if cfg.Loader.MaxPayloadBytes < 0 {
		add("loader.max_payload_bytes", "must be >= 0")
	}

	switch cfg.UI.Mode {
	case "auto", "live", "plain":
	default:
		add("ui.mode", fmt.Sprintf("invalid mode %q (expected auto|live|plain)", cfg.UI.Mode))
	}

	switch cfg.Telemetry.Exporter {
	case "none", "stdout":
	default:
		add("telemetry.exporter", fmt.Sprintf("invalid exporter %q (expected none|stdout)", cfg.Telemetry.Exporter))
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func checkBaseURL(value string) string {
	if strings.TrimSpace(value) == "" {
		return "is required"
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Sprintf("invalid url: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "must use http or https"
	}
	if parsed.Host == "" {
		return "must include a host"
	}
	return ""
}
