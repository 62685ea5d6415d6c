// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

// maxSelectWorkers caps the errgroup; selection is a cheap read-only
// binary search per target.
const maxSelectWorkers = 8

var (
	selectTracer = otel.Tracer("dab.selector")
	selectMeter  = otel.Meter("dab.selector")

	noSolutionTotal metric.Int64Counter
	selectOnce      sync.Once
	selectErr       error
)

func initSelectMetrics() error {
	selectOnce.Do(func() {
		noSolutionTotal, selectErr = selectMeter.Int64Counter(
			"dab_select_no_solution_total",
			metric.WithDescription("Targets with no acceptable candidate"),
		)
	})
	return selectErr
}

// Stats summarizes one SelectAll pass. Error aggregates include the
// no-solution rows' unattained distances, so a policy that silently
// gives up still shows up in the numbers.
type Stats struct {
	Selected       int
	NoSolution     int
	MeanAbsErrorW  float64
	WorstAbsErrorW float64
}

// Result is the ordered output of one SelectAll pass.
type Result struct {
	// Points is ordered by (V2, TargetW) regardless of worker
	// scheduling.
	Points []OptimalPoint

	Stats Stats
}

// SelectAll selects every (secondary voltage, target) pair.
//
// Description:
//
//	Fans the table's V2 partitions out onto a bounded errgroup. Each
//	partition's targets are selected into a preallocated slice region,
//	so the output order is (V2, TargetW) by construction.
//
// Inputs:
//   - ctx: Context for cancellation between partitions.
//   - t: The candidate table. Read-only.
//   - targets: The power ladder, typically from Targets.
//
// Outputs:
//   - Result: Ordered points plus aggregate stats.
//   - error: Policy validation or context cancellation.
//
// Thread Safety: Safe for concurrent use.
func (p Policy) SelectAll(ctx context.Context, t *store.Table, targets []float64) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if len(targets) == 0 {
		return Result{}, ErrInvalidTargets
	}

	v2s := t.V2Values()
	ctx, span := selectTracer.Start(ctx, "selector.SelectAll")
	defer span.End()
	span.SetAttributes(
		attribute.Int("select.partitions", len(v2s)),
		attribute.Int("select.targets", len(targets)),
	)

	points := make([]OptimalPoint, len(v2s)*len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), maxSelectWorkers))
	for i, v2 := range v2s {
		out := points[i*len(targets) : (i+1)*len(targets)]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j, target := range targets {
				out[j] = p.Select(t, v2, target)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	res := Result{Points: points}
	var absErrors []float64
	for _, pt := range points {
		if pt.Found {
			res.Stats.Selected++
		} else {
			res.Stats.NoSolution++
		}
		if !math.IsNaN(pt.PowerErrorW) {
			absErrors = append(absErrors, pt.PowerErrorW)
			res.Stats.WorstAbsErrorW = math.Max(res.Stats.WorstAbsErrorW, pt.PowerErrorW)
		}
	}
	if len(absErrors) > 0 {
		res.Stats.MeanAbsErrorW = stat.Mean(absErrors, nil)
	}

	if initSelectMetrics() == nil && res.Stats.NoSolution > 0 {
		noSolutionTotal.Add(ctx, int64(res.Stats.NoSolution))
	}
	span.SetAttributes(
		attribute.Int("select.selected", res.Stats.Selected),
		attribute.Int("select.no_solution", res.Stats.NoSolution),
	)
	span.SetStatus(codes.Ok, "")

	slog.Info("selection completed",
		slog.Int("partitions", len(v2s)),
		slog.Int("targets", len(targets)),
		slog.Int("selected", res.Stats.Selected),
		slog.Int("no_solution", res.Stats.NoSolution),
		slog.Float64("mean_abs_error_w", res.Stats.MeanAbsErrorW),
		slog.Float64("worst_abs_error_w", res.Stats.WorstAbsErrorW),
	)
	return res, nil
}
