// Package config handles loading and managing application configuration
// from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	DefaultLevel      string `yaml:"default_level"`
	DefaultModuleSize int    `yaml:"default_module_size"`
	OutputDir         string `yaml:"output_dir"`
	LogLevel          string `yaml:"log_level"`
}

// defaults returns a Config populated with sensible default values.
// The server binds to loopback only: this is a local tool, not a service.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Host:              "127.0.0.1",
		Port:              8080,
		DefaultLevel:      "Medium (15%)",
		DefaultModuleSize: 10,
		OutputDir:         filepath.Join(homeDir, "qrstudio"),
		LogLevel:          "info",
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Environment variables with the
// QRSTUDIO_ prefix override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist — proceed with defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies QRSTUDIO_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRSTUDIO_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("QRSTUDIO_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRSTUDIO_DEFAULT_LEVEL"); v != "" {
		cfg.DefaultLevel = v
	}
	if v := os.Getenv("QRSTUDIO_DEFAULT_MODULE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultModuleSize = n
		}
	}
	if v := os.Getenv("QRSTUDIO_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRSTUDIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EnsureOutputDir creates the OutputDir if it does not already exist.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	return nil
}
