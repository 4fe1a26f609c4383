// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading, defaults, template
// expansion and validation.
package config

import (
	"net"
	"os"
	"strconv"
	"time"
)

// Config is the root configuration structure for ideaforge.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Database  DatabaseConfig  `json:"database"`
	Gateway   GatewayConfig   `json:"gateway"`
	Prompts   PromptsConfig   `json:"prompts"`
	Chat      ChatConfig      `json:"chat"`
	Canvas    CanvasConfig    `json:"canvas"`
	Events    EventsConfig    `json:"events"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int    `json:"port"`
	Host    string `json:"host"`
	TLSCert string `json:"tls_cert"` // enables HTTPS together with tls_key
	TLSKey  string `json:"tls_key"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level  string `json:"level"`  // "debug", "info", "warn", "error"
	Format string `json:"format"` // "json", "text"
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite", "postgres"
	DSN    string `json:"dsn"`
}

// GatewayConfig configures the completion gateway and its provider.
type GatewayConfig struct {
	Provider    string `json:"provider"` // "openai", "gemini", "function"
	Model       string `json:"model"`
	BaseURL     string `json:"base_url"`
	APIKey      string `json:"api_key"`
	APIKeyEnv   string `json:"api_key_env"`
	FunctionURL string `json:"function_url"`
	Timeout     string `json:"timeout"`
	MaxAttempts int    `json:"max_attempts"`
	Backoff     string `json:"backoff"`
}

// Key returns the API key, read from APIKeyEnv when APIKey is empty.
func (g GatewayConfig) Key() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	if g.APIKeyEnv != "" {
		return os.Getenv(g.APIKeyEnv)
	}
	return ""
}

// PromptsConfig points at an optional prompt override file.
type PromptsConfig struct {
	File  string `json:"file"`
	Watch *bool  `json:"watch"`
}

// IsWatching reports whether the prompt file is reloaded on change.
func (p PromptsConfig) IsWatching() bool {
	if p.Watch == nil {
		return p.File != ""
	}
	return *p.Watch && p.File != ""
}

// ChatConfig configures the chat assistant.
type ChatConfig struct {
	Debounce   string `json:"debounce"`
	MaxHistory int    `json:"max_history"`
}

// CanvasConfig configures workspace persistence.
type CanvasConfig struct {
	AutosaveDebounce string `json:"autosave_debounce"`
	IdleTimeout      string `json:"idle_timeout"` // idle workspaces are dropped from memory
}

// EventsConfig configures the event system.
type EventsConfig struct {
	History HistoryConfig `json:"history"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// TelemetryConfig toggles OpenTelemetry recording in the gateway.
type TelemetryConfig struct {
	Enabled bool `json:"enabled"`
}

// TemplateContext provides data for template expansion.
type TemplateContext struct {
	ConfigDir string
	Env       map[string]string
}

// ParseDuration parses a duration string, returning a default if empty.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
