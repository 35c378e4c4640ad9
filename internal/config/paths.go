package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config path constants used by the CLI and loaders.
const (
	ConfigDirName  = ".traceview"
	ConfigFileName = "config.yml"
	DotEnvFileName = ".env"
)

// ErrConfigNotFound reports that no config file exists up to the filesystem root.
var ErrConfigNotFound = errors.New("config not found")

// ConfigDir returns the .traceview directory under the project root.
func ConfigDir(root string) string {
	return filepath.Join(root, ConfigDirName)
}

// ConfigPath returns the full config file path under the project root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), ConfigFileName)
}

// ProjectRoot derives the project root from a config file path. The .env
// file is read from this directory.
func ProjectRoot(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// FindConfigPath walks from startDir (or the working directory) toward the
// filesystem root and returns the first .traceview/config.yml. A .traceview
// directory without a config file stops the search with an error.
func FindConfigPath(startDir string) (string, error) {
	start, err := startDirectory(startDir)
	if err != nil {
		return "", err
	}
	for dir := start; ; {
		path, found, err := configIn(dir)
		if err != nil || found {
			return path, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s in %s or its parents", ErrConfigNotFound, filepath.Join(ConfigDirName, ConfigFileName), start)
		}
		dir = parent
	}
}

func startDirectory(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	return abs, nil
}

// configIn checks one directory for a config file.
func configIn(dir string) (string, bool, error) {
	path := ConfigPath(dir)
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return "", false, fmt.Errorf("config path %q is a directory", path)
	case err == nil:
		return path, true, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", false, fmt.Errorf("stat config path %q: %w", path, err)
	}
	if dirInfo, dirErr := os.Stat(ConfigDir(dir)); dirErr == nil && dirInfo.IsDir() {
		return "", false, fmt.Errorf("found %q but %s is missing", ConfigDir(dir), ConfigFileName)
	}
	return "", false, nil
}
