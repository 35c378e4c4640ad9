package config

import "time"

// Config is the root of .traceview/config.yml.
type Config struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Loader    LoaderConfig    `yaml:"loader"`
	UI        UIConfig        `yaml:"ui"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig points at the backend trace API.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ServerConfig configures the web viewer.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	RenderWaitMS  int    `yaml:"render_wait_ms"`
	AssetsBaseURL string `yaml:"assets_base_url"`
}

// LoaderConfig bounds the trace cache and payload size.
type LoaderConfig struct {
	CacheSize       int   `yaml:"cache_size"`
	MaxPayloadBytes int64 `yaml:"max_payload_bytes"`
}

// UIConfig configures the terminal viewer.
type UIConfig struct {
	Mode    string `yaml:"mode"`
	NoColor bool   `yaml:"no_color"`
}

// TelemetryConfig selects where OpenTelemetry spans are exported.
type TelemetryConfig struct {
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

// Timeout returns the API timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RenderWait returns how long the web viewer waits before showing a loading page.
func (c Config) RenderWait() time.Duration {
	return time.Duration(c.Server.RenderWaitMS) * time.Millisecond
}
