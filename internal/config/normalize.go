package config

import "strings"

// Normalize fills defaults for unset fields.
func Normalize(cfg *Config) {
	cfg.API.BaseURL = strings.TrimSpace(cfg.API.BaseURL)
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = DefaultTimeoutSeconds
	}
	cfg.Server.Addr = strings.TrimSpace(cfg.Server.Addr)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.RenderWaitMS == 0 {
		cfg.Server.RenderWaitMS = DefaultRenderWaitMS
	}
	if cfg.Loader.CacheSize == 0 {
		cfg.Loader.CacheSize = DefaultCacheSize
	}
	if cfg.Loader.MaxPayloadBytes == 0 {
		cfg.Loader.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	cfg.UI.Mode = strings.ToLower(strings.TrimSpace(cfg.UI.Mode))
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = DefaultUIMode
	}
	cfg.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Exporter))
	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = DefaultTraceExporter
	}
	cfg.Telemetry.ServiceName = strings.TrimSpace(cfg.Telemetry.ServiceName)
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}
