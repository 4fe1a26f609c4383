// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wingedpig/ideaforge/internal/gateway"

// Recorder receives gateway measurements.
type Recorder interface {
	// RecordAttempt is called after every provider attempt.
	RecordAttempt(ctx context.Context, provider, model string, err error)

	// RecordCall is called once per Invoke or Chat with the final outcome.
	RecordCall(ctx context.Context, provider, model string, attempts int, duration time.Duration, err error)
}

// NoopRecorder discards all measurements.
type NoopRecorder struct{}

func (NoopRecorder) RecordAttempt(context.Context, string, string, error) {}

func (NoopRecorder) RecordCall(context.Context, string, string, int, time.Duration, error) {}

type otelRecorder struct {
	calls    metric.Int64Counter
	attempts metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewRecorder returns a Recorder backed by the global OpenTelemetry meter
// provider. Configure the provider with otel.SetMeterProvider first.
func NewRecorder() (Recorder, error) {
	return NewMeterRecorder(otel.GetMeterProvider())
}

// NewMeterRecorder returns a Recorder that reports through mp.
func NewMeterRecorder(mp metric.MeterProvider) (Recorder, error) {
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("ideaforge.gateway.calls",
		metric.WithDescription("Completion calls made through the gateway"),
	)
	if err != nil {
		return nil, err
	}

	attempts, err := meter.Int64Counter("ideaforge.gateway.attempts",
		metric.WithDescription("Provider attempts, including retries"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("ideaforge.gateway.failures",
		metric.WithDescription("Calls that exhausted every attempt"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("ideaforge.gateway.latency_ms",
		metric.WithDescription("End-to-end call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		calls:    calls,
		attempts: attempts,
		failures: failures,
		latency:  latency,
	}, nil
}

func (r *otelRecorder) RecordAttempt(ctx context.Context, provider, model string, err error) {
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	))
}

func (r *otelRecorder) RecordCall(ctx context.Context, provider, model string, attempts int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	r.calls.Add(ctx, 1, attrs)
	r.latency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		r.failures.Add(ctx, 1, attrs)
	}
}

var tracer = otel.Tracer(instrumentationName)

func startSpan(ctx context.Context, name, provider string, req Request) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gateway.provider", provider),
			attribute.String("gateway.model", req.Model),
			attribute.Float64("gateway.temperature", req.temperature()),
			attribute.Bool("gateway.expect_array", req.ExpectArray),
		),
	)
}

func endSpan(span trace.Span, attempts int, err error) {
	span.SetAttributes(attribute.Int("gateway.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
