// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manager

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Prometheus metrics for resolution outcomes.
var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_resolutions_total",
		Help: "Total resolutions by resolver and outcome",
	}, []string{"resolver", "outcome"})

	resolutionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cascade_resolution_latency_seconds",
		Help:    "Resolution latency by resolver",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"resolver"})

	sourcesAttempted = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cascade_sources_attempted",
		Help:    "Number of sources attempted per resolution",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	}, []string{"resolver"})
)

// Outcome labels for resolutionsTotal.
const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeError = "error"
)

// OTel tracer for manager operations.
var managerTracer = otel.Tracer("cascade.manager")

// startResolveSpan creates a span for a resolution.
func startResolveSpan(ctx context.Context, resolver, key string) (context.Context, trace.Span) {
	return managerTracer.Start(ctx, "Manager.Resolve",
		trace.WithAttributes(
			attribute.String("cascade.resolver", resolver),
			attribute.String("cascade.key", key),
		),
	)
}

// setResolveSpanResult sets outcome attributes on a resolution span.
func setResolveSpanResult(span trace.Span, found bool, attempted int) {
	span.SetAttributes(
		attribute.Bool("cascade.found", found),
		attribute.Int("cascade.sources_attempted", attempted),
	)
}
