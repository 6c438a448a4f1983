package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name searched for when no path is given.
const DefaultConfigFile = ".scrynk.yaml"

// ErrConfigNotFound is returned when an explicitly requested file is missing.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadFile builds the configuration from defaults, then the YAML file at path
// (or the first DefaultConfigFile found), then the environment.
//
// A missing file is only an error when path was given explicitly.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	found := FindConfigFile(path)
	if path != "" && found == "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if found != "" {
		data, err := os.ReadFile(found) //nolint:gosec // user-provided config path is intentional
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", found, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", found, err)
		}
		cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	}

	cfg.applyEnv()
	return cfg, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if specified
//  2. DefaultConfigFile in the current directory
//  3. DefaultConfigFile in the user's home directory
//
// Returns an empty string if nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
