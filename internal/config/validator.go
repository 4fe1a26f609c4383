// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateLogging(cfg, errs)
	v.validateDatabase(cfg, errs)
	v.validateGateway(cfg, errs)
	v.validateChat(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs.Add("server.port", "must be between 0 and 65535")
	}
	if (cfg.Server.TLSCert == "") != (cfg.Server.TLSKey == "") {
		errs.Add("server.tls_cert", "tls_cert and tls_key must be set together")
	}
}

func (v *Validator) validateLogging(cfg *Config, errs *ValidationError) {
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.Logging.Level] {
			errs.Add("logging.level", fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", cfg.Logging.Level))
		}
	}

	if cfg.Logging.Format != "" {
		validFormats := map[string]bool{
			"json": true,
			"text": true,
		}
		if !validFormats[cfg.Logging.Format] {
			errs.Add("logging.format", fmt.Sprintf("invalid format '%s', must be one of: json, text", cfg.Logging.Format))
		}
	}
}

func (v *Validator) validateDatabase(cfg *Config, errs *ValidationError) {
	switch cfg.Database.Driver {
	case "", "sqlite":
	case "postgres":
		if cfg.Database.DSN == "" {
			errs.Add("database.dsn", "is required for the postgres driver")
		}
	default:
		errs.Add("database.driver", fmt.Sprintf("invalid driver '%s', must be one of: sqlite, postgres", cfg.Database.Driver))
	}
}

func (v *Validator) validateGateway(cfg *Config, errs *ValidationError) {
	g := cfg.Gateway
	switch g.Provider {
	case "", "openai":
		if g.BaseURL != "" {
			validateURL("gateway.base_url", g.BaseURL, errs)
		}
	case "gemini":
		if g.Model == "" {
			errs.Add("gateway.model", "is required for the gemini provider")
		}
	case "function":
		if g.FunctionURL == "" {
			errs.Add("gateway.function_url", "is required for the function provider")
		} else {
			validateURL("gateway.function_url", g.FunctionURL, errs)
		}
	default:
		errs.Add("gateway.provider", fmt.Sprintf("invalid provider '%s', must be one of: openai, gemini, function", g.Provider))
	}

	if g.MaxAttempts < 0 {
		errs.Add("gateway.max_attempts", "must not be negative")
	}
}

func validateURL(field, raw string, errs *ValidationError) {
	u, err := url.Parse(raw)
	if err != nil {
		errs.Add(field, fmt.Sprintf("invalid URL: %s", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add(field, "must be an http or https URL")
	}
}

func (v *Validator) validateChat(cfg *Config, errs *ValidationError) {
	if cfg.Chat.MaxHistory < 0 {
		errs.Add("chat.max_history", "must not be negative")
	}
	if cfg.Events.History.MaxEvents < 0 {
		errs.Add("events.history.max_events", "must not be negative")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	durations := []struct {
		field string
		value string
	}{
		{"gateway.timeout", cfg.Gateway.Timeout},
		{"gateway.backoff", cfg.Gateway.Backoff},
		{"chat.debounce", cfg.Chat.Debounce},
		{"canvas.autosave_debounce", cfg.Canvas.AutosaveDebounce},
		{"canvas.idle_timeout", cfg.Canvas.IdleTimeout},
		{"events.history.max_age", cfg.Events.History.MaxAge},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			errs.Add(d.field, fmt.Sprintf("invalid duration format: %s", err))
		} else if parsed < 0 {
			errs.Add(d.field, "must be positive")
		}
	}
}
