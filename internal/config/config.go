// Package config assembles server configuration from profile defaults, an
// optional YAML file, and environment overrides, in that precedence order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the effective server configuration.
type Config struct {
	Profile            string    `yaml:"profile"`
	HTTPListen         string    `yaml:"http_listen"`
	CallTimeoutSeconds int       `yaml:"call_timeout_seconds"`
	MaxOutputBytes     int       `yaml:"max_output_bytes"`
	Tools              ToolPaths `yaml:"tools"`
}

// ToolPaths holds the executables invoked for each operation. Plain names
// are resolved through PATH.
type ToolPaths struct {
	Pytest string `yaml:"pytest"`
	Mypy   string `yaml:"mypy"`
	Flake8 string `yaml:"flake8"`
}

// Profiles provide defaults only; the YAML file overrides them, and
// explicit env vars override everything.
var profiles = map[string]Config{
	"dev": {
		Profile:            "dev",
		HTTPListen:         "127.0.0.1:8080",
		CallTimeoutSeconds: 600,
		MaxOutputBytes:     1 << 20,
	},
	"prod": {
		Profile:            "prod",
		HTTPListen:         "0.0.0.0:8080",
		CallTimeoutSeconds: 300,
		MaxOutputBytes:     256 * 1024,
	},
}

// Load builds the effective configuration. path may be empty (no file).
func Load(path string) (*Config, error) {
	var file Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	profileName := strings.TrimSpace(strings.ToLower(os.Getenv("PYMCP_PROFILE")))
	if profileName == "" {
		profileName = strings.TrimSpace(strings.ToLower(file.Profile))
	}
	if profileName == "" {
		profileName = "dev"
	}
	cfg, ok := profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (valid: dev, prod)", profileName)
	}

	applyFile(&cfg, file)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Tools.Pytest == "" {
		cfg.Tools.Pytest = "pytest"
	}
	if cfg.Tools.Mypy == "" {
		cfg.Tools.Mypy = "mypy"
	}
	if cfg.Tools.Flake8 == "" {
		cfg.Tools.Flake8 = "flake8"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFile(cfg *Config, file Config) {
	if file.HTTPListen != "" {
		cfg.HTTPListen = file.HTTPListen
	}
	if file.CallTimeoutSeconds > 0 {
		cfg.CallTimeoutSeconds = file.CallTimeoutSeconds
	}
	if file.MaxOutputBytes > 0 {
		cfg.MaxOutputBytes = file.MaxOutputBytes
	}
	if file.Tools.Pytest != "" {
		cfg.Tools.Pytest = file.Tools.Pytest
	}
	if file.Tools.Mypy != "" {
		cfg.Tools.Mypy = file.Tools.Mypy
	}
	if file.Tools.Flake8 != "" {
		cfg.Tools.Flake8 = file.Tools.Flake8
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PYMCP_HTTP_LISTEN"); v != "" {
		cfg.HTTPListen = v
	}
	if v := strings.TrimSpace(os.Getenv("PYMCP_CALL_TIMEOUT_SECONDS")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid PYMCP_CALL_TIMEOUT_SECONDS: %q", v)
		}
		cfg.CallTimeoutSeconds = secs
	}
	if v := strings.TrimSpace(os.Getenv("PYMCP_MAX_OUTPUT_BYTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid PYMCP_MAX_OUTPUT_BYTES: %q", v)
		}
		cfg.MaxOutputBytes = n
	}
	if v := os.Getenv("PYMCP_PYTEST_BIN"); v != "" {
		cfg.Tools.Pytest = v
	}
	if v := os.Getenv("PYMCP_MYPY_BIN"); v != "" {
		cfg.Tools.Mypy = v
	}
	if v := os.Getenv("PYMCP_FLAKE8_BIN"); v != "" {
		cfg.Tools.Flake8 = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.HTTPListen == "" {
		return fmt.Errorf("http_listen must not be empty")
	}
	if c.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("call_timeout_seconds must be positive, got %d", c.CallTimeoutSeconds)
	}
	if c.MaxOutputBytes <= 0 {
		return fmt.Errorf("max_output_bytes must be positive, got %d", c.MaxOutputBytes)
	}
	return nil
}
