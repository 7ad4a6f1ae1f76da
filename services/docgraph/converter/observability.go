// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package converter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docgraph/converter")

var (
	convertTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgraph_convert_total",
		Help: "Total number of conversion runs by outcome.",
	}, []string{"outcome"})

	convertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docgraph_convert_duration_seconds",
		Help:    "Duration of full conversion runs.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	convertReflections = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docgraph_convert_reflections",
		Help:    "Number of reflections created per conversion run.",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	})
)

// startConvertSpan begins a trace span for one conversion run.
func startConvertSpan(ctx context.Context, projectName string, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "converter.Convert",
		trace.WithAttributes(
			attribute.String("convert.project", projectName),
			attribute.Int("convert.file_count", fileCount),
		))
}

// setConvertSpanResult records conversion counts on the span.
func setConvertSpanResult(span trace.Span, nodeCount, diagnosticCount int) {
	span.SetAttributes(
		attribute.Int("convert.node_count", nodeCount),
		attribute.Int("convert.diagnostic_count", diagnosticCount),
	)
}

// recordConvertMetrics updates prometheus counters for one run.
func recordConvertMetrics(elapsed time.Duration, nodeCount int, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "canceled"
	}
	convertTotal.WithLabelValues(outcome).Inc()
	if ok {
		convertDuration.Observe(elapsed.Seconds())
		convertReflections.Observe(float64(nodeCount))
	}
}
