// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package prompts loads the named prompt templates sent to the completion
// gateway and renders them into requests.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wingedpig/ideaforge/internal/gateway"
)

// Template names shipped with the default set.
const (
	InitialSchema  = "initial_schema"
	RefineSchema   = "refine_schema"
	IdeaGeneration = "idea_generation"
	IdeaEvaluation = "idea_evaluation"
	ChatAssistant  = "chat_assistant"
)

//go:embed defaults.yaml
var defaultTemplates []byte

// Template is one prompt definition as written in YAML.
type Template struct {
	System      string   `yaml:"system"`
	User        string   `yaml:"user"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	ExpectArray bool     `yaml:"expect_array,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
}

type compiled struct {
	def    Template
	system *template.Template
	user   *template.Template
}

// Store holds the compiled templates. Templates from the override file
// replace defaults of the same name.
type Store struct {
	mu        sync.RWMutex
	path      string
	templates map[string]*compiled
	logger    *zap.Logger
}

// New creates a store from the embedded defaults plus the file at path, if
// path is non-empty.
func New(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger.Named("prompts")}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the override file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the override file. On error the current templates are kept.
func (s *Store) Reload() error {
	templates, err := parse(defaultTemplates)
	if err != nil {
		return fmt.Errorf("default prompts: %w", err)
	}

	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return fmt.Errorf("reading prompts: %w", err)
		}
		overrides, err := parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		for name, t := range overrides {
			templates[name] = t
		}
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()

	s.logger.Info("prompts loaded", zap.String("path", s.path), zap.Int("templates", len(templates)))
	return nil
}

func parse(data []byte) (map[string]*compiled, error) {
	var defs map[string]Template
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	out := make(map[string]*compiled, len(defs))
	for name, def := range defs {
		c := &compiled{def: def}
		var err error
		if c.system, err = compile(name+".system", def.System); err != nil {
			return nil, err
		}
		if c.user, err = compile(name+".user", def.User); err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}

func compile(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return t, nil
}

// Names returns the loaded template names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the raw definition of a template.
func (s *Store) Get(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.templates[name]
	if !ok {
		return Template{}, false
	}
	return c.def, true
}

// Render executes the named template with data and returns the gateway
// request it describes.
func (s *Store) Render(name string, data map[string]any) (gateway.Request, error) {
	s.mu.RLock()
	c, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return gateway.Request{}, fmt.Errorf("unknown prompt %q", name)
	}

	system, err := execute(c.system, data)
	if err != nil {
		return gateway.Request{}, err
	}
	user, err := execute(c.user, data)
	if err != nil {
		return gateway.Request{}, err
	}

	req := gateway.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        c.def.Model,
		ExpectArray:  c.def.ExpectArray,
		MaxTokens:    c.def.MaxTokens,
	}
	if c.def.Temperature != nil {
		req.Temperature = gateway.Temperature(*c.def.Temperature)
	}
	return req, nil
}

func execute(t *template.Template, data map[string]any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return b.String(), nil
}
