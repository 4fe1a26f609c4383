// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig controls how many times a call is attempted and how long to
// wait between attempts.
type RetryConfig struct {
	// MaxAttempts counts the initial attempt.
	MaxAttempts int

	// Backoff is the wait before the second attempt. Zero retries immediately.
	Backoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each attempt.
	BackoffFactor float64

	// Jitter randomizes each wait by up to this fraction (0.0-1.0).
	Jitter float64
}

// DefaultRetry makes three immediate attempts.
var DefaultRetry = RetryConfig{
	MaxAttempts:   DefaultMaxAttempts,
	MaxBackoff:    10 * time.Second,
	BackoffFactor: 2.0,
}

// RetryResult carries the outcome of a retried call.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	Duration time.Duration
}

// AttemptFunc performs one attempt. attempt is 1-based.
type AttemptFunc[T any] func(ctx context.Context, attempt int) (T, error)

// WithRetry runs fn until it succeeds, returns a permanent error, the context
// ends, or MaxAttempts is reached. Err holds the last attempt's error.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn AttemptFunc[T]) RetryResult[T] {
	start := time.Now()
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := cfg.Backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult[T]{Err: err, Attempts: attempt - 1, Duration: time.Since(start)}
		}

		value, err := fn(ctx, attempt)
		if err == nil {
			return RetryResult[T]{Value: value, Attempts: attempt, Duration: time.Since(start)}
		}
		lastErr = err

		if IsPermanent(err) {
			return RetryResult[T]{Err: err, Attempts: attempt, Duration: time.Since(start)}
		}

		if attempt < maxAttempts && backoff > 0 {
			select {
			case <-ctx.Done():
				return RetryResult[T]{Err: ctx.Err(), Attempts: attempt, Duration: time.Since(start)}
			case <-time.After(jittered(backoff, cfg.Jitter)):
			}

			if cfg.BackoffFactor > 1 {
				backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			}
			if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return RetryResult[T]{Err: lastErr, Attempts: maxAttempts, Duration: time.Since(start)}
}

func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	delta := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + delta)
}
