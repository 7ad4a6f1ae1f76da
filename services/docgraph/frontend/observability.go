// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package frontend

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docgraph/frontend")

var (
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgraph_parse_total",
		Help: "Total number of source file parses by language and outcome.",
	}, []string{"language", "outcome"})

	parseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgraph_parse_duration_seconds",
		Help:    "Duration of source file parses.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	parseNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgraph_parse_nodes",
		Help:    "Number of declaration nodes extracted per file.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"language"})
)

// startParseSpan begins a trace span for one file parse.
func startParseSpan(ctx context.Context, language, filePath string, sizeBytes int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "frontend.Parse",
		trace.WithAttributes(
			attribute.String("parse.language", language),
			attribute.String("parse.file", filePath),
			attribute.Int("parse.size_bytes", sizeBytes),
		))
}

// setParseSpanResult records extraction counts on a parse span.
func setParseSpanResult(span trace.Span, nodeCount, errorCount int) {
	span.SetAttributes(
		attribute.Int("parse.node_count", nodeCount),
		attribute.Int("parse.error_count", errorCount),
	)
}

// recordParseMetrics updates prometheus counters for one parse.
func recordParseMetrics(language string, elapsed time.Duration, nodeCount int, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	parseTotal.WithLabelValues(language, outcome).Inc()
	parseDuration.WithLabelValues(language).Observe(elapsed.Seconds())
	if ok {
		parseNodes.WithLabelValues(language).Observe(float64(nodeCount))
	}
}
