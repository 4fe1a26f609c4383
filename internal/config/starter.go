// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strconv"
	"strings"
)

// StarterOptions are the choices asked for by "ideaforge init".
type StarterOptions struct {
	Port     int
	Provider string
	Model    string
	Database string // "sqlite" or a postgres DSN
}

// escapeHJSONValue escapes a string for safe inclusion in an HJSON double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// Starter renders a commented ideaforge.hjson.
func Starter(opts StarterOptions) string {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Provider == "" {
		opts.Provider = "openai"
	}
	if opts.Model == "" && opts.Provider == "openai" {
		opts.Model = DefaultModel
	}

	var sb strings.Builder

	sb.WriteString(`{
  // =============================================================================
  // ideaforge configuration
  // =============================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).
  //
  // String values for database.dsn, gateway.base_url, gateway.api_key,
  // gateway.function_url and prompts.file may use templates:
  //   {{ env "NAME" }}              - environment variable
  //   {{ default "x" (env "NAME") }} - with a fallback
  //   {{ .ConfigDir }}               - directory holding this file

  server: {
    // Use "0.0.0.0" to allow remote access
    host: "127.0.0.1"
    port: `)
	sb.WriteString(strconv.Itoa(opts.Port))
	sb.WriteString(`
  }

  logging: {
    // debug, info, warn, error
    level: "info"
    // json or text
    format: "text"
  }

  database: {
`)
	if opts.Database == "" || opts.Database == "sqlite" {
		sb.WriteString(`    driver: "sqlite"
    dsn: "ideaforge.db"
`)
	} else {
		sb.WriteString(`    driver: "postgres"
    dsn: "`)
		sb.WriteString(escapeHJSONValue(opts.Database))
		sb.WriteString(`"
`)
	}
	sb.WriteString(`  }

  gateway: {
    // openai, gemini or function
    provider: "`)
	sb.WriteString(escapeHJSONValue(opts.Provider))
	sb.WriteString(`"
`)
	if opts.Model != "" {
		sb.WriteString(`    model: "`)
		sb.WriteString(escapeHJSONValue(opts.Model))
		sb.WriteString(`"
`)
	}
	switch opts.Provider {
	case "function":
		sb.WriteString(`    // Remote function implementing the chat-completion contract
    function_url: "http://localhost:8420/api/v1/functions/chat-completion"
`)
	case "gemini":
		sb.WriteString(`    api_key_env: "GEMINI_API_KEY"
`)
	default:
		sb.WriteString(`    base_url: "https://api.openai.com/v1"
    api_key_env: "OPENAI_API_KEY"
`)
	}
	sb.WriteString(`
    // Each model call is tried this many times before giving up
    max_attempts: 3
    timeout: "60s"
  }

  // Override the built-in prompt templates. The file is reloaded on change.
  // prompts: {
  //   file: "prompts.yaml"
  // }

  chat: {
    // Minimum time between two messages from the same user
    debounce: "1s"
    max_history: 50
  }

  canvas: {
    // Delay before a moved panel is saved
    autosave_debounce: "500ms"
    // Sessions untouched this long are unloaded; they reload on next use
    idle_timeout: "30m"
  }

  events: {
    history: {
      max_events: 10000
      max_age: "1h"
    }
  }

  telemetry: {
    enabled: false
  }
}
`)
	return sb.String()
}
