// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ideation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/prompts"
)

// MaxEvaluated is the number of ideas kept by the evaluation step.
const MaxEvaluated = 10

// Invoker sends a request to the model and returns its JSON reply.
type Invoker interface {
	Invoke(ctx context.Context, req gateway.Request) (json.RawMessage, error)
}

// Renderer turns a named prompt template into a request.
type Renderer interface {
	Render(name string, data map[string]any) (gateway.Request, error)
}

// Generator runs the four model-backed steps of the workflow.
type Generator struct {
	invoker Invoker
	prompts Renderer
	logger  *zap.Logger
}

// NewGenerator creates a generator.
func NewGenerator(invoker Invoker, prompts Renderer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{invoker: invoker, prompts: prompts, logger: logger.Named("generator")}
}

func (g *Generator) call(ctx context.Context, name string, data map[string]any) (json.RawMessage, error) {
	req, err := g.prompts.Render(name, data)
	if err != nil {
		return nil, err
	}
	return g.invoker.Invoke(ctx, req)
}

// InitialSchema asks the model for a first schema from a context input.
func (g *Generator) InitialSchema(ctx context.Context, in ContextInput) (Schema, error) {
	raw, err := g.call(ctx, prompts.InitialSchema, map[string]any{
		"context":     in.Context,
		"purpose":     in.Purpose,
		"preferences": in.Preferences,
	})
	if err != nil {
		return Schema{}, fmt.Errorf("schema generation: %w", err)
	}

	schema, err := decodeSchema(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("schema generation: %w", err)
	}
	g.logger.Info("schema generated", zap.Int("criteria", len(schema.Criteria)))
	return schema, nil
}

// RefineSchema asks the model to fold the user's rankings into schema. The
// purpose and context of the result are always those of schema.
func (g *Generator) RefineSchema(ctx context.Context, schema Schema, rankings []IdeaRanking) (Schema, error) {
	raw, err := g.call(ctx, prompts.RefineSchema, map[string]any{
		"schema":   string(schema.JSON()),
		"rankings": mustJSON(rankings),
	})
	if err != nil {
		return Schema{}, fmt.Errorf("schema refinement: %w", err)
	}

	refined, err := decodeSchema(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("schema refinement: %w", err)
	}
	if refined.Purpose != schema.Purpose || refined.Context != schema.Context {
		g.logger.Warn("model changed purpose or context, restoring")
		refined.Purpose = schema.Purpose
		refined.Context = schema.Context
	}
	return refined, nil
}

// GenerateIdeas asks the model for a batch of ideas.
func (g *Generator) GenerateIdeas(ctx context.Context, schema Schema) ([]Idea, error) {
	raw, err := g.call(ctx, prompts.IdeaGeneration, map[string]any{
		"schema": string(schema.JSON()),
	})
	if err != nil {
		return nil, fmt.Errorf("idea generation: %w", err)
	}

	ideas, err := decodeIdeas(raw)
	if err != nil {
		return nil, fmt.Errorf("idea generation: %w", err)
	}
	g.logger.Info("ideas generated", zap.Int("count", len(ideas)))
	return ideas, nil
}

// EvaluateIdeas asks the model to score ideas and keep the best
// MaxEvaluated of them.
func (g *Generator) EvaluateIdeas(ctx context.Context, schema Schema, ideas []Idea) ([]Idea, error) {
	raw, err := g.call(ctx, prompts.IdeaEvaluation, map[string]any{
		"schema": string(schema.JSON()),
		"ideas":  mustJSON(ideas),
	})
	if err != nil {
		return nil, fmt.Errorf("idea evaluation: %w", err)
	}

	evaluated, err := decodeIdeas(raw)
	if err != nil {
		return nil, fmt.Errorf("idea evaluation: %w", err)
	}
	if len(evaluated) > MaxEvaluated {
		evaluated = evaluated[:MaxEvaluated]
	}
	g.logger.Info("ideas evaluated", zap.Int("kept", len(evaluated)), zap.Int("of", len(ideas)))
	return evaluated, nil
}

func decodeSchema(raw json.RawMessage) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return Schema{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return s, nil
}

// decodeIdeas accepts a bare array or an object with an "ideas" array.
func decodeIdeas(raw json.RawMessage) ([]Idea, error) {
	raw = bytes.TrimSpace(raw)
	if !gateway.IsArray(raw) {
		var wrapped struct {
			Ideas json.RawMessage `json:"ideas"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || !gateway.IsArray(wrapped.Ideas) {
			return nil, fmt.Errorf("%w: expected an array of ideas", ErrInvalidIdeas)
		}
		raw = wrapped.Ideas
	}

	var ideas []Idea
	if err := json.Unmarshal(raw, &ideas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdeas, err)
	}

	out := ideas[:0]
	for _, idea := range ideas {
		idea.Idea = strings.TrimSpace(idea.Idea)
		if idea.Idea != "" {
			out = append(out, idea)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: reply held no ideas", ErrInvalidIdeas)
	}
	return out, nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
