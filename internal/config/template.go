// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// TemplateExpander handles Go text/template variable expansion in config values.
type TemplateExpander struct {
	funcMap template.FuncMap
}

// NewTemplateExpander creates a new template expander with built-in functions.
func NewTemplateExpander() *TemplateExpander {
	return &TemplateExpander{
		funcMap: template.FuncMap{
			"upper":   strings.ToUpper,
			"lower":   strings.ToLower,
			"default": Default,
			"quote":   Quote,
		},
	}
}

// NewTemplateContext returns a context holding the process environment.
func NewTemplateContext(configDir string) *TemplateContext {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return &TemplateContext{ConfigDir: configDir, Env: env}
}

// Expand expands template variables in a string value. The env function
// looks a variable up in ctx.Env.
func (e *TemplateExpander) Expand(value string, ctx *TemplateContext) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	funcs := template.FuncMap{
		"env": func(name string) string { return ctx.Env[name] },
	}
	tmpl, err := template.New("").Funcs(e.funcMap).Funcs(funcs).Option("missingkey=zero").Parse(value)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExpandConfig expands templates in the string fields that commonly carry
// secrets or paths. A relative prompts file is resolved against the config
// directory.
func (e *TemplateExpander) ExpandConfig(cfg *Config, ctx *TemplateContext) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"database.dsn", &cfg.Database.DSN},
		{"gateway.base_url", &cfg.Gateway.BaseURL},
		{"gateway.api_key", &cfg.Gateway.APIKey},
		{"gateway.function_url", &cfg.Gateway.FunctionURL},
		{"prompts.file", &cfg.Prompts.File},
	}
	for _, f := range fields {
		v, err := e.Expand(*f.ptr, ctx)
		if err != nil {
			return fmt.Errorf("expand %s: %w", f.name, err)
		}
		*f.ptr = v
	}

	if cfg.Prompts.File != "" && !filepath.IsAbs(cfg.Prompts.File) && ctx.ConfigDir != "" {
		cfg.Prompts.File = filepath.Join(ctx.ConfigDir, cfg.Prompts.File)
	}
	return nil
}

// Default returns the default value if the value is empty.
func Default(defaultVal, value string) string {
	if value == "" {
		return defaultVal
	}
	return value
}

// Quote adds quotes around a string.
func Quote(s string) string {
	escaped := strings.ReplaceAll(s, `"`, `\"`)
	return `"` + escaped + `"`
}
