// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures a Gateway.
type Config struct {
	// Model is used when a request does not name one.
	Model string

	Retry    RetryConfig
	Logger   *zap.Logger
	Recorder Recorder
}

// Gateway wraps a Provider with defaults, JSON validation and retries.
type Gateway struct {
	provider Provider
	model    string
	retry    RetryConfig
	logger   *zap.Logger
	recorder Recorder
}

// New creates a gateway over provider.
func New(provider Provider, cfg Config) *Gateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NoopRecorder{}
	}
	return &Gateway{
		provider: provider,
		model:    cfg.Model,
		retry:    cfg.Retry,
		logger:   cfg.Logger.Named("gateway"),
		recorder: cfg.Recorder,
	}
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

func (g *Gateway) withDefaults(req Request) Request {
	if req.Model == "" {
		req.Model = g.model
	}
	if req.Temperature == nil {
		req.Temperature = Temperature(DefaultTemperature)
	}
	return req
}

// Invoke sends req and returns the reply parsed as JSON. An attempt fails on a
// transport or provider error, an empty reply, or a reply that is not valid
// JSON; failed attempts are retried up to the configured maximum.
func (g *Gateway) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	req = g.withDefaults(req)
	req.JSONMode = true

	ctx, span := startSpan(ctx, "ideaforge.gateway.invoke", g.provider.Name(), req)
	start := time.Now()

	g.logger.Debug("completion request",
		zap.String("model", req.Model),
		zap.Float64("temperature", req.temperature()),
		zap.Bool("expect_array", req.ExpectArray),
	)

	result := WithRetry(ctx, g.retry, func(ctx context.Context, attempt int) (json.RawMessage, error) {
		completion, err := g.provider.Complete(ctx, req)
		if err == nil {
			var raw json.RawMessage
			raw, err = ParseJSON(completion.Content)
			if err == nil {
				g.recorder.RecordAttempt(ctx, g.provider.Name(), req.Model, nil)
				g.logger.Debug("completion parsed",
					zap.Int("attempt", attempt),
					zap.Bool("is_array", IsArray(raw)),
				)
				return raw, nil
			}
		}

		g.recorder.RecordAttempt(ctx, g.provider.Name(), req.Model, err)
		g.logger.Warn("completion attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.retry.MaxAttempts),
			zap.Error(err),
		)
		return nil, err
	})

	err := g.finish(ctx, req, result.Attempts, start, result.Err)
	endSpan(span, result.Attempts, err)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// Chat sends req and returns the free-text reply, retrying failed attempts.
func (g *Gateway) Chat(ctx context.Context, req Request) (*Completion, error) {
	req = g.withDefaults(req)

	ctx, span := startSpan(ctx, "ideaforge.gateway.chat", g.provider.Name(), req)
	start := time.Now()

	result := WithRetry(ctx, g.retry, func(ctx context.Context, attempt int) (*Completion, error) {
		completion, err := g.provider.Complete(ctx, req)
		if err == nil && strings.TrimSpace(completion.Content) == "" {
			err = ErrEmptyResponse
		}
		g.recorder.RecordAttempt(ctx, g.provider.Name(), req.Model, err)
		if err != nil {
			g.logger.Warn("chat attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}
		return completion, nil
	})

	err := g.finish(ctx, req, result.Attempts, start, result.Err)
	endSpan(span, result.Attempts, err)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

func (g *Gateway) finish(ctx context.Context, req Request, attempts int, start time.Time, err error) error {
	duration := time.Since(start)
	if err != nil && ctx.Err() == nil && !IsPermanent(err) {
		err = fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	}
	g.recorder.RecordCall(ctx, g.provider.Name(), req.Model, attempts, duration, err)

	if err != nil {
		g.logger.Error("completion failed",
			zap.String("model", req.Model),
			zap.Int("attempts", attempts),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}
	g.logger.Info("completion succeeded",
		zap.String("model", req.Model),
		zap.Int("attempts", attempts),
		zap.Duration("duration", duration),
	)
	return nil
}

// ParseJSON extracts a JSON document from a model reply, tolerating
// surrounding whitespace and a markdown code fence.
func ParseJSON(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, ErrEmptyResponse
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}

	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: %.80q", ErrInvalidJSON, s)
	}
	return json.RawMessage(s), nil
}

// IsArray reports whether raw holds a JSON array.
func IsArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Decode unmarshals raw into a value of type T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}
