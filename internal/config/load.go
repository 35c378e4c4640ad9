package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads, parses, normalizes, and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveOptions controls how Resolve locates configuration.
type ResolveOptions struct {
	// Path is an explicit config file; discovery is skipped when set.
	Path string
	// StartDir is where upward discovery begins; empty means the working directory.
	StartDir string
	// LookupEnv reads overrides; nil means os.LookupEnv after loading .env.
	LookupEnv func(string) (string, bool)
}

// Resolve loads the explicit or discovered config file, falling back to
// defaults when none exists, then applies environment overrides. It returns
// the config path that was used, or "" for defaults.
func Resolve(opts ResolveOptions) (Config, string, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		found, err := FindConfigPath(opts.StartDir)
		switch {
		case err == nil:
			path = found
		case errors.Is(err, ErrConfigNotFound):
		default:
			return Config{}, "", err
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, "", err
		}
		cfg = loaded
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		envDir := opts.StartDir
		if path != "" {
			envDir = ProjectRoot(path)
		}
		if err := LoadDotEnv(filepath.Join(envDir, DotEnvFileName)); err != nil {
			return Config{}, "", err
		}
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, "", err
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}
