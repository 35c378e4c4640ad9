package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config describes the traceapi YAML configuration.
type config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		LatencyMS  int    `yaml:"latency_ms"`
	} `yaml:"server"`
	Traces struct {
		Dir  string `yaml:"dir"`
		Demo *bool  `yaml:"demo"`
	} `yaml:"traces"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// defaultConfig serves the demo trace on the viewer's default API address.
func defaultConfig() config {
	var cfg config
	applyDefaults(&cfg)
	return cfg
}

// loadConfig reads and validates the configuration file.
func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return defaultConfig(), nil
		}
		return cfg, err
	}
	applyDefaults(&cfg)
	if cfg.Server.LatencyMS < 0 {
		return cfg, fmt.Errorf("server.latency_ms must be >= 0")
	}
	if cfg.Traces.Dir != "" {
		info, err := os.Stat(cfg.Traces.Dir)
		if err != nil {
			return cfg, fmt.Errorf("traces.dir: %w", err)
		}
		if !info.IsDir() {
			return cfg, fmt.Errorf("traces.dir %q is not a directory", cfg.Traces.Dir)
		}
	}
	if cfg.Traces.Dir == "" && !cfg.demoEnabled() {
		return cfg, fmt.Errorf("traces.dir is required when traces.demo is false")
	}
	return cfg, nil
}

func applyDefaults(cfg *config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = "127.0.0.1:8787"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// demoEnabled reports whether the built-in demo run is served; on by default.
func (c config) demoEnabled() bool {
	return c.Traces.Demo == nil || *c.Traces.Demo
}

// latency converts the configured delay to a duration.
func (c config) latency() time.Duration {
	return time.Duration(c.Server.LatencyMS) * time.Millisecond
}
