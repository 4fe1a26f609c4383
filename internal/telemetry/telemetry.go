// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry owns the OpenTelemetry SDK providers. Metrics are kept
// in memory and read on demand; finished spans are written to the logger.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/wingedpig/ideaforge/internal/gateway"
)

// Telemetry holds the meter and tracer providers.
type Telemetry struct {
	reader   *sdkmetric.ManualReader
	meters   *sdkmetric.MeterProvider
	tracers  *sdktrace.TracerProvider
	recorder gateway.Recorder
}

// Setup creates the providers, installs them as the global providers and
// builds the gateway recorder on top of them.
func Setup(logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := sdkmetric.NewManualReader()
	meters := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tracers := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(NewLogExporter(logger)),
	)

	recorder, err := gateway.NewMeterRecorder(meters)
	if err != nil {
		return nil, errors.Join(err, meters.Shutdown(context.Background()), tracers.Shutdown(context.Background()))
	}

	otel.SetMeterProvider(meters)
	otel.SetTracerProvider(tracers)

	return &Telemetry{reader: reader, meters: meters, tracers: tracers, recorder: recorder}, nil
}

// Recorder returns the gateway recorder.
func (t *Telemetry) Recorder() gateway.Recorder {
	return t.recorder
}

// Collect reads the current value of every metric.
func (t *Telemetry) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := t.reader.Collect(ctx, &rm)
	return rm, err
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.tracers.Shutdown(ctx), t.meters.Shutdown(ctx))
}
