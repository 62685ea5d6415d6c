// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sweep

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the candidate generator.
var (
	tracer = otel.Tracer("dab.sweep")
	meter  = otel.Meter("dab.sweep")
)

var (
	candidatesTotal    metric.Int64Counter
	droppedTotal       metric.Int64Counter
	designPointLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		candidatesTotal, err = meter.Int64Counter(
			"dab_sweep_candidates_total",
			metric.WithDescription("Candidates kept by the grid sweep"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		droppedTotal, err = meter.Int64Counter(
			"dab_sweep_dropped_total",
			metric.WithDescription("Grid evaluations dropped, by reason"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		designPointLatency, err = meter.Float64Histogram(
			"dab_sweep_design_point_duration_seconds",
			metric.WithDescription("Duration of one design-point sweep"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRunSpan creates the span covering one full sweep run.
func startRunSpan(ctx context.Context, runID string, points int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sweep.Run",
		trace.WithAttributes(
			attribute.String("sweep.run_id", runID),
			attribute.Int("sweep.design_points", points),
		),
	)
}

// recordDesignPoint records per-design-point metrics.
func recordDesignPoint(ctx context.Context, v2 float64, kept int, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Float64("v2_v", v2))
	candidatesTotal.Add(ctx, int64(kept), attrs)
	designPointLatency.Record(ctx, duration.Seconds(), attrs)
}

// recordDrops records the run's drop counters by reason.
func recordDrops(ctx context.Context, d DropCounters) {
	if err := initMetrics(); err != nil {
		return
	}
	for reason, n := range map[string]int64{
		"non_positive_power": d.NonPositivePower,
		"over_ceiling":       d.OverCeiling,
		"negative_i2":        d.NegativeSquaredRMS,
	} {
		if n == 0 {
			continue
		}
		droppedTotal.Add(ctx, n, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
