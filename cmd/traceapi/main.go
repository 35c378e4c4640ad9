package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traceview/internal/fixtureapi"
	"traceview/internal/logging"
)

// main launches the fixture trace API.
func main() {
	os.Exit(run())
}

// run executes traceapi and returns an exit code.
func run() int {
	configPath := flag.String("config", "", "path to traceapi config (default: serve the demo run)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.ListenAddr = *addr
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		return 1
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           fixtureapi.NewHandler(fixtureapi.Config{Source: sourcesFor(cfg), Latency: cfg.latency(), Logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logger.Info("trace api listening", "addr", cfg.Server.ListenAddr, "dir", cfg.Traces.Dir, "demo", cfg.demoEnabled())

	exit := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		exit = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	return exit
}

// sourcesFor lists the configured trace sources; files win over the demo run.
func sourcesFor(cfg config) fixtureapi.Sources {
	var sources fixtureapi.Sources
	if cfg.Traces.Dir != "" {
		sources = append(sources, fixtureapi.DirSource{Dir: cfg.Traces.Dir})
	}
	if cfg.demoEnabled() {
		sources = append(sources, fixtureapi.DemoSource{})
	}
	return sources
}
