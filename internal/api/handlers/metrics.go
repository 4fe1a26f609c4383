// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MetricsCollector reads the current metrics.
type MetricsCollector func(ctx context.Context) (metricdata.ResourceMetrics, error)

// MetricsHandler reports in-process metrics.
type MetricsHandler struct {
	collect MetricsCollector
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(collect MetricsCollector) *MetricsHandler {
	return &MetricsHandler{collect: collect}
}

// Metric is one instrument with its data points.
type Metric struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Unit        string        `json:"unit,omitempty"`
	Points      []MetricPoint `json:"points"`
}

// MetricPoint is one attribute set of an instrument. Histograms report
// Count and Sum; counters report Value.
type MetricPoint struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value,omitempty"`
	Count      uint64            `json:"count,omitempty"`
	Sum        float64           `json:"sum,omitempty"`
}

// List returns every metric.
func (h *MetricsHandler) List(w http.ResponseWriter, r *http.Request) {
	rm, err := h.collect(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, flattenMetrics(rm))
}

func flattenMetrics(rm metricdata.ResourceMetrics) []Metric {
	out := []Metric{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			metric := Metric{Name: m.Name, Description: m.Description, Unit: m.Unit, Points: []MetricPoint{}}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					metric.Points = append(metric.Points, MetricPoint{Attributes: attrMap(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					metric.Points = append(metric.Points, MetricPoint{Attributes: attrMap(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					metric.Points = append(metric.Points, MetricPoint{Attributes: attrMap(dp.Attributes), Count: dp.Count, Sum: dp.Sum})
				}
			}
			out = append(out, metric)
		}
	}
	return out
}

func attrMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	m := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}
