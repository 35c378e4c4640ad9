package config

// Defaults applied by Normalize.
const (
	DefaultBaseURL         = "http://127.0.0.1:8787"
	DefaultTimeoutSeconds  = 10
	DefaultAddr            = "127.0.0.1:8080"
	DefaultRenderWaitMS    = 2000
	DefaultCacheSize       = 64
	DefaultMaxPayloadBytes = int64(32 << 20)
	DefaultUIMode          = "auto"
	DefaultTraceExporter   = "none"
	DefaultServiceName     = "traceview"
)

// Default returns the configuration used when no config file exists.
func Default() Config {
	cfg := Config{Version: 1}
	Normalize(&cfg)
	return cfg
}
