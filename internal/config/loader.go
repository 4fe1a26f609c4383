// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
)

// Defaults.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8420
	DefaultDatabaseDSN = "ideaforge.db"
	DefaultModel       = "gpt-4o-mini"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultAPIKeyEnv   = "OPENAI_API_KEY"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes HJSON configuration data.
func Parse(data []byte) (*Config, error) {
	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config, expands templates relative to the config
// file's directory and applies default values.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	dir := "."
	if abs, err := filepath.Abs(path); err == nil {
		dir = filepath.Dir(abs)
	}
	if err := NewTemplateExpander().ExpandConfig(cfg, NewTemplateContext(dir)); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a config file in the current directory.
// It looks for ideaforge.hjson first, then ideaforge.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"ideaforge.hjson",
		"ideaforge.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for %s)", strings.Join(candidates, ", "))
}

// ApplyDefaults sets default values for missing config fields.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = DefaultDatabaseDSN
	}

	// Gateway defaults
	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = "openai"
	}
	if cfg.Gateway.Model == "" && cfg.Gateway.Provider == "openai" {
		cfg.Gateway.Model = DefaultModel
	}
	if cfg.Gateway.BaseURL == "" && cfg.Gateway.Provider == "openai" {
		cfg.Gateway.BaseURL = DefaultBaseURL
	}
	if cfg.Gateway.APIKeyEnv == "" {
		switch cfg.Gateway.Provider {
		case "openai":
			cfg.Gateway.APIKeyEnv = DefaultAPIKeyEnv
		case "gemini":
			cfg.Gateway.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if cfg.Gateway.Timeout == "" {
		cfg.Gateway.Timeout = "60s"
	}
	if cfg.Gateway.MaxAttempts == 0 {
		cfg.Gateway.MaxAttempts = 3
	}
	if cfg.Gateway.Backoff == "" {
		cfg.Gateway.Backoff = "0s"
	}

	// Chat defaults
	if cfg.Chat.Debounce == "" {
		cfg.Chat.Debounce = "1s"
	}
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = 50
	}

	// Canvas defaults
	if cfg.Canvas.AutosaveDebounce == "" {
		cfg.Canvas.AutosaveDebounce = "500ms"
	}
	if cfg.Canvas.IdleTimeout == "" {
		cfg.Canvas.IdleTimeout = "30m"
	}

	// Events defaults
	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 10000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}
}
