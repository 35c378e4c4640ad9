package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"traceview/internal/config"
	"traceview/internal/loader"
	"traceview/internal/logging"
	"traceview/internal/telemetry"
)

// commonFlags are accepted by every command that talks to the trace API.
type commonFlags struct {
	configPath string
	apiBaseURL string
	logLevel   string
	logFormat  string
}

func (c *commonFlags) bind(fs *flag.FlagSet, defaultLevel string) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file (default: search for .traceview/config.yml)")
	fs.StringVar(&c.apiBaseURL, "api", "", "Trace API base URL (overrides config)")
	fs.StringVar(&c.logLevel, "log-level", defaultLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&c.logFormat, "log-format", logging.FormatText, "Log format (text|json)")
}

// lookupEnv is a test seam for environment overrides; nil uses the process env.
var lookupEnv func(string) (string, bool)

// environment is the resolved config, logger, tracer provider and trace loader
// for a command. Callers must close it.
type environment struct {
	cfg        config.Config
	configPath string
	logger     *slog.Logger
	tracing    *telemetry.Provider
	loader     *loader.Loader
}

// close flushes pending spans.
func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.tracing.Close(ctx); err != nil {
		e.logger.Warn("flush traces", "error", err)
	}
}

// resolve loads config and builds the shared trace loader. Logs and exported
// spans go to logOut.
func (c *commonFlags) resolve(logOut io.Writer) (*environment, error) {
	cfg, path, err := config.Resolve(config.ResolveOptions{Path: c.configPath, LookupEnv: lookupEnv})
	if err != nil {
		return nil, err
	}
	if c.apiBaseURL != "" {
		cfg.API.BaseURL = c.apiBaseURL
		if err := config.Validate(&cfg); err != nil {
			return nil, err
		}
	}
	logger, err := logging.New(logOut, c.logLevel, c.logFormat)
	if err != nil {
		return nil, err
	}
	tracing, err := telemetry.Setup(context.Background(), telemetry.Options{
		Exporter:    cfg.Telemetry.Exporter,
		ServiceName: cfg.Telemetry.ServiceName,
		Output:      logOut,
	})
	if err != nil {
		return nil, err
	}
	client := loader.NewClient(cfg.API.BaseURL, loader.ClientOptions{
		Timeout:         cfg.Timeout(),
		MaxPayloadBytes: cfg.Loader.MaxPayloadBytes,
		TracerProvider:  tracing,
	})
	traces, err := loader.New(client, loader.Options{
		CacheSize:      cfg.Loader.CacheSize,
		Logger:         logger,
		TracerProvider: tracing,
	})
	if err != nil {
		_ = tracing.Close(context.Background())
		return nil, err
	}
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return &environment{cfg: cfg, configPath: path, logger: logger, tracing: tracing, loader: traces}, nil
}

// parseFlags parses command flags and returns the positional arguments.
// Flags may follow positionals, so "view run_1 --errors" works.
func parseFlags(cmd *Command, fs *flag.FlagSet, args []string, stdout, stderr io.Writer) ([]string, int, bool) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				printCommandUsage(cmd, stdout)
				return nil, ExitOK, false
			}
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return nil, ExitUsage, false
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, ExitOK, true
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
