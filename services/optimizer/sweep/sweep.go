// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sweep generates the candidate table: a full 3-D grid
// evaluation of every region model at every secondary design point,
// plus targeted augmentation passes that sample the analytically
// optimal trajectory more densely than the grid can.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

const (
	// DefaultStep is the grid resolution for each control coordinate.
	DefaultStep = 0.01

	// DefaultLo and DefaultHi bound the grid axis. The 0.01/0.99 margin
	// keeps the grid off the hard modulation limits where several region
	// predicates degenerate.
	DefaultLo = 0.01
	DefaultHi = 0.99

	// maxSweepWorkers caps the pool regardless of CPU count. Design
	// points are coarse work units; more workers than points is waste.
	maxSweepWorkers = 8

	// probeStep is the coarse resolution of the pre-run feasibility
	// probe.
	probeStep = 0.05
)

// Config parameterizes one sweep run. Zero values select the defaults.
type Config struct {
	// Design is the derived converter configuration. Required.
	Design region.Design

	// Set overrides the region models to evaluate. Nil means the
	// design's formula set. The augmentation passes skip a set that
	// does not carry Zones I and V.
	Set region.Set

	// Step is the grid resolution (default 0.01).
	Step float64

	// Lo and Hi bound each control coordinate (defaults 0.01 and 0.99).
	Lo float64
	Hi float64

	// PowerCeilingW drops candidates above this physical power. Zero
	// means the design's PMaxW.
	PowerCeilingW float64

	// Workers bounds the pool (default min(GOMAXPROCS, 8)).
	Workers int

	// Augment disables the zone-set augmentation passes when false.
	// Ignored by the legacy set, which has no analytical path.
	Augment bool
}

// DefaultConfig returns the standard sweep configuration for a design.
func DefaultConfig(design region.Design) Config {
	return Config{
		Design:  design,
		Augment: design.Kind == region.KindZone,
	}
}

// Generator runs grid sweeps for one validated configuration.
//
// Thread Safety: Safe for concurrent use; Run shares no mutable state
// across calls.
type Generator struct {
	cfg  Config
	set  region.Set
	axis []float64
}

// New validates the configuration and probes the design for
// feasibility.
//
// Description:
//
//	Applies defaults, rejects impossible parameters, then runs a coarse
//	probe sweep: if no grid point is feasible in any region at any
//	design point, the scale parameter lies outside every feasibility
//	cone and a full run would return an empty table. That is a
//	configuration error, reported here as ErrInfeasibleDesign before
//	any expensive work begins.
//
// Outputs:
//   - *Generator: Ready to Run.
//   - error: ErrInvalidConfig or ErrInfeasibleDesign.
func New(cfg Config) (*Generator, error) {
	if cfg.Step == 0 {
		cfg.Step = DefaultStep
	}
	if cfg.Lo == 0 {
		cfg.Lo = DefaultLo
	}
	if cfg.Hi == 0 {
		cfg.Hi = DefaultHi
	}
	if cfg.PowerCeilingW == 0 {
		cfg.PowerCeilingW = cfg.Design.PMaxW
	}
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.GOMAXPROCS(0), maxSweepWorkers)
	}

	if cfg.Step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %g", ErrInvalidConfig, cfg.Step)
	}
	if cfg.Lo <= 0 || cfg.Hi >= 1 || cfg.Lo >= cfg.Hi {
		return nil, fmt.Errorf("%w: bounds [%g, %g] must satisfy 0 < lo < hi < 1", ErrInvalidConfig, cfg.Lo, cfg.Hi)
	}
	if cfg.PowerCeilingW <= 0 {
		return nil, fmt.Errorf("%w: power ceiling must be positive, got %g", ErrInvalidConfig, cfg.PowerCeilingW)
	}
	if cfg.Design.ScaleP <= 0 {
		return nil, fmt.Errorf("%w: design is not derived", ErrInvalidConfig)
	}
	if cfg.Set == nil {
		cfg.Set = cfg.Design.Set()
	}
	if len(cfg.Set) == 0 {
		return nil, fmt.Errorf("%w: empty region set", ErrInvalidConfig)
	}

	g := &Generator{cfg: cfg, set: cfg.Set, axis: gridAxis(cfg.Lo, cfg.Hi, cfg.Step)}

	if !g.anyFeasible() {
		return nil, fmt.Errorf("%w: m in [%g, %g]", ErrInfeasibleDesign,
			cfg.Design.M(cfg.Design.V2MinV), cfg.Design.M(cfg.Design.V2MaxV))
	}
	return g, nil
}

// Config returns the effective configuration with all defaults applied.
// Cache keys must derive from this, not the caller's pre-default value:
// a zero Step and an explicit DefaultStep produce the same table.
func (g *Generator) Config() Config {
	return g.cfg
}

// gridAxis builds the inclusive ladder lo, lo+step, ... <= hi.
func gridAxis(lo, hi, step float64) []float64 {
	var axis []float64
	for d := lo; d <= hi+1e-12; d += step {
		axis = append(axis, d)
	}
	return axis
}

// anyFeasible probes a coarse grid for at least one feasible point.
func (g *Generator) anyFeasible() bool {
	probe := gridAxis(g.cfg.Lo, g.cfg.Hi, probeStep)
	for _, v2 := range g.cfg.Design.DesignPoints() {
		m := g.cfg.Design.M(v2)
		for _, model := range g.set {
			for _, d0 := range probe {
				for _, d1 := range probe {
					for _, d2 := range probe {
						if model.Feasible(region.Control{D0: d0, D1: d1, D2: d2}, m) {
							return true
						}
					}
				}
			}
		}
	}
	return false
}

// Run executes the sweep.
//
// Description:
//
//	Partitions work by design point onto a bounded pool. Each worker
//	owns local row slices and counters, merged under one lock; the
//	table constructor then deduplicates and sorts, so the result is
//	independent of scheduling. Worker panics are recovered and
//	converted to ErrWorkerPanic.
//
// Inputs:
//   - ctx: Context for cancellation. A cancelled run returns ctx.Err().
//
// Outputs:
//   - *store.Table: The deduplicated, sorted candidate table.
//   - Stats: Run ID, kept/dropped counters and per-zone aggregates.
//   - error: Non-nil on cancellation or worker panic.
//
// Thread Safety: Safe for concurrent use.
func (g *Generator) Run(ctx context.Context) (*store.Table, Stats, error) {
	runID := uuid.NewString()
	points := g.cfg.Design.DesignPoints()

	ctx, span := startRunSpan(ctx, runID, len(points))
	defer span.End()

	start := time.Now()
	stats := Stats{RunID: runID}

	workers := g.cfg.Workers
	if len(points) < 2 {
		workers = 1
	}
	if workers > len(points) {
		workers = len(points)
	}

	var (
		mu        sync.Mutex
		rows      []store.Candidate
		workerErr error
	)

	work := make(chan float64, len(points))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					slog.Error("panic in sweep worker",
						slog.String("run_id", runID),
						slog.Int("worker_id", workerID),
						slog.Any("panic", r),
						slog.String("stack", string(buf[:n])),
					)
					mu.Lock()
					if workerErr == nil {
						workerErr = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
					}
					mu.Unlock()
				}
			}()

			local := make([]store.Candidate, 0, 4096)
			var evaluated int64
			var drops DropCounters

			for v2 := range work {
				if ctx.Err() != nil {
					break
				}

				pointStart := time.Now()
				before := len(local)

				local = g.sweepDesignPoint(v2, local, &evaluated, &drops)
				if g.cfg.Augment && g.cfg.Design.Kind == region.KindZone {
					local = g.augmentDesignPoint(v2, local, &evaluated, &drops)
				}

				kept := len(local) - before
				recordDesignPoint(ctx, v2, kept, time.Since(pointStart))
				slog.Debug("design point swept",
					slog.String("run_id", runID),
					slog.Float64("v2_v", v2),
					slog.Int("kept", kept),
					slog.Duration("duration", time.Since(pointStart)),
				)
			}

			mu.Lock()
			rows = append(rows, local...)
			stats.Evaluated += evaluated
			stats.Dropped.merge(drops)
			mu.Unlock()
		}(i)
	}

	for _, v2 := range points {
		work <- v2
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, Stats{}, err
	}
	if workerErr != nil {
		span.RecordError(workerErr)
		span.SetStatus(codes.Error, workerErr.Error())
		return nil, Stats{}, workerErr
	}

	table := store.New(g.cfg.Design, rows)
	stats.Summarize(table)
	stats.Duration = time.Since(start)
	recordDrops(ctx, stats.Dropped)

	span.SetAttributes(
		attribute.Int("sweep.kept", stats.Kept),
		attribute.Int64("sweep.evaluated", stats.Evaluated),
		attribute.Int64("sweep.dropped", stats.Dropped.Total()),
	)
	span.SetStatus(codes.Ok, "")

	slog.Info("sweep completed",
		slog.String("run_id", runID),
		slog.Int("design_points", len(points)),
		slog.Int("kept", stats.Kept),
		slog.Int64("evaluated", stats.Evaluated),
		slog.Int64("dropped", stats.Dropped.Total()),
		slog.Duration("duration", stats.Duration),
	)
	return table, stats, nil
}

// sweepDesignPoint runs the full grid at one secondary voltage,
// appending kept rows to out.
func (g *Generator) sweepDesignPoint(v2 float64, out []store.Candidate, evaluated *int64, drops *DropCounters) []store.Candidate {
	m := g.cfg.Design.M(v2)
	for _, model := range g.set {
		for _, d0 := range g.axis {
			for _, d1 := range g.axis {
				for _, d2 := range g.axis {
					c := region.Control{D0: d0, D1: d1, D2: d2}
					if !model.Feasible(c, m) {
						continue
					}
					*evaluated++
					out = g.appendCandidate(out, v2, m, c, model.Zone,
						model.Power(c, m), model.SquaredRMS(c, m), drops)
				}
			}
		}
	}
	return out
}

// appendCandidate applies the value filters and converts to physical
// units. Every rejection increments exactly one drop counter.
func (g *Generator) appendCandidate(out []store.Candidate, v2, m float64, c region.Control, zone region.Zone, p, i2 float64, drops *DropCounters) []store.Candidate {
	if p <= 0 {
		drops.NonPositivePower++
		return out
	}
	power := g.cfg.Design.ScaleP * p
	if power > g.cfg.PowerCeilingW {
		drops.OverCeiling++
		return out
	}
	if i2 < 0 {
		drops.NegativeSquaredRMS++
		return out
	}
	irmsScaled := math.Sqrt(i2)
	return append(out, store.Candidate{
		V2:         v2,
		M:          m,
		D0:         c.D0,
		D1:         c.D1,
		D2:         c.D2,
		Zone:       zone,
		PScaled:    p,
		IrmsScaled: irmsScaled,
		Power:      power,
		Irms:       g.cfg.Design.ScaleI * irmsScaled,
	})
}
