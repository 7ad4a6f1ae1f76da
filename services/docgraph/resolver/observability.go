// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docgraph/resolver")

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgraph_resolve_total",
		Help: "Total number of resolution passes by outcome.",
	}, []string{"outcome"})

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docgraph_resolve_duration_seconds",
		Help:    "Duration of resolution passes.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// startResolveSpan begins a trace span for one resolution pass.
func startResolveSpan(ctx context.Context, projectName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "resolver.Resolve",
		trace.WithAttributes(attribute.String("resolve.project", projectName)))
}

// setResolveSpanResult records reference counts on the span.
func setResolveSpanResult(span trace.Span, resolved, unresolved int) {
	span.SetAttributes(
		attribute.Int("resolve.resolved", resolved),
		attribute.Int("resolve.unresolved", unresolved),
	)
}

// recordResolveMetrics updates prometheus counters for one pass.
func recordResolveMetrics(elapsed time.Duration, _ int, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "canceled"
	}
	resolveTotal.WithLabelValues(outcome).Inc()
	if ok {
		resolveDuration.Observe(elapsed.Seconds())
	}
}
