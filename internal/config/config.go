// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-keychain-services.
//
// go-keychain-services is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the CLI configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete CLI configuration.
type Config struct {
	Keychain      KeychainConfig      `yaml:"keychain"`
	Authenticator AuthenticatorConfig `yaml:"authenticator"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// KeychainConfig selects the keychain all commands operate on.
type KeychainConfig struct {
	// Path of the keychain to use. Empty means the default keychain.
	Path string `yaml:"path"`
}

// AuthenticatorConfig controls how the software provider resolves
// simulated authentication prompts for access-control-gated operations.
type AuthenticatorConfig struct {
	// Decision is "allow", "deny" or "cancel".
	Decision string `yaml:"decision"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Authenticator: AuthenticatorConfig{Decision: "allow"},
		Logging:       LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if path := os.Getenv("KEYCHAIN_PATH"); path != "" {
		cfg.Keychain.Path = path
	}
	if decision := os.Getenv("KEYCHAIN_AUTH_DECISION"); decision != "" {
		cfg.Authenticator.Decision = decision
	}
	if level := os.Getenv("KEYCHAIN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("KEYCHAIN_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Authenticator.Decision {
	case "", "allow", "deny", "cancel":
	default:
		return fmt.Errorf("invalid authenticator decision: %q", c.Authenticator.Decision)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}
