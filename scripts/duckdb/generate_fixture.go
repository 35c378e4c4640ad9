package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"traceview/internal/export"
	"traceview/internal/fixtureapi"
	"traceview/internal/trace"
)

// fixtureConfig defines the JSON config for generating a DuckDB export fixture.
type fixtureConfig struct {
	Prefix string `json:"prefix"`
	Runs   int    `json:"runs"`
}

func main() {
	configPath := flag.String("config", "", "path to fixture config JSON")
	outPath := flag.String("out", "", "output duckdb file path")
	flag.Parse()
	if *configPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: generate_fixture --config <path> --out <duckdb file>")
		os.Exit(2)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir output dir: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := generateFixture(ctx, *outPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "generate fixture: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (fixtureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixtureConfig{}, err
	}
	var cfg fixtureConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fixtureConfig{}, err
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "demo"
	}
	if cfg.Runs <= 0 {
		return fixtureConfig{}, fmt.Errorf("runs must be > 0")
	}
	return cfg, nil
}

// generateFixture exports cfg.Runs demo traces, each shuffled by its run id.
func generateFixture(ctx context.Context, path string, cfg fixtureConfig) error {
	db, err := export.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	exportedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < cfg.Runs; i++ {
		runID := fmt.Sprintf("%s_%03d", cfg.Prefix, i)
		payload, err := fixtureapi.DemoTrace(runID)
		if err != nil {
			return err
		}
		resp, err := trace.Normalize(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", runID, err)
		}
		if _, err := export.WriteTrace(ctx, db, runID, resp, exportedAt); err != nil {
			return fmt.Errorf("%s: %w", runID, err)
		}
	}
	return nil
}
