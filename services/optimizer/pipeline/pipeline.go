// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline runs the two-stage batch flow end to end: generate
// (or fetch from cache) the candidate table, export it, then select the
// optimal point for every target and export those.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/cache"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/sweep"
)

// Config assembles one batch run.
type Config struct {
	// Sweep parameterizes candidate generation.
	Sweep sweep.Config

	// Policy parameterizes target selection.
	Policy selector.Policy

	// PowerMinW, PowerMaxW and PowerStepW define the target ladder.
	PowerMinW  float64
	PowerMaxW  float64
	PowerStepW float64

	// CandidatesOut and OptimalOut are CSV destinations; empty skips
	// the export.
	CandidatesOut string
	OptimalOut    string

	// CacheDir enables the sweep cache when non-empty; NoCache bypasses
	// it even then.
	CacheDir string
	NoCache  bool
}

// Report summarizes one run for the CLI.
type Report struct {
	RunID    string
	CacheHit bool

	Rows        int
	ZoneCounts  map[region.Zone]int
	SweepStats  sweep.Stats
	SelectStats selector.Stats

	CandidatesOut string
	OptimalOut    string
	Duration      time.Duration
}

// Run executes the full pipeline.
//
// Description:
//
//	Validates both stages up front, probes the cache, sweeps on a miss,
//	exports the candidate table, selects every (V2, target) pair and
//	exports the optimal points. Cache failures degrade to a plain sweep
//	with a warning; export and selection failures are fatal.
func Run(ctx context.Context, cfg Config) (Report, error) {
	start := time.Now()

	gen, err := sweep.New(cfg.Sweep)
	if err != nil {
		return Report{}, err
	}
	if err := cfg.Policy.Validate(); err != nil {
		return Report{}, err
	}
	targets, err := selector.Targets(cfg.PowerMinW, cfg.PowerMaxW, cfg.PowerStepW)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		CandidatesOut: cfg.CandidatesOut,
		OptimalOut:    cfg.OptimalOut,
	}

	table, stats, err := buildTable(ctx, cfg, gen, &report)
	if err != nil {
		return Report{}, err
	}
	report.SweepStats = stats
	report.RunID = stats.RunID
	report.Rows = table.Len()
	report.ZoneCounts = zoneCounts(table)

	if cfg.CandidatesOut != "" {
		if err := writeCSV(cfg.CandidatesOut, table.WriteCSV); err != nil {
			return Report{}, err
		}
	}

	result, err := cfg.Policy.SelectAll(ctx, table, targets)
	if err != nil {
		return Report{}, err
	}
	report.SelectStats = result.Stats

	if cfg.OptimalOut != "" {
		write := func(w io.Writer) error { return selector.WriteCSV(w, result.Points) }
		if err := writeCSV(cfg.OptimalOut, write); err != nil {
			return Report{}, err
		}
	}

	report.Duration = time.Since(start)
	slog.Info("pipeline completed",
		slog.String("run_id", report.RunID),
		slog.Bool("cache_hit", report.CacheHit),
		slog.Int("candidates", report.Rows),
		slog.Int("selected", result.Stats.Selected),
		slog.Int("no_solution", result.Stats.NoSolution),
		slog.Float64("mean_abs_error_w", result.Stats.MeanAbsErrorW),
		slog.Float64("worst_abs_error_w", result.Stats.WorstAbsErrorW),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// buildTable returns the candidate table, consulting the cache when
// enabled. A cache that fails to open or read is logged and skipped.
func buildTable(ctx context.Context, cfg Config, gen *sweep.Generator, report *Report) (*store.Table, sweep.Stats, error) {
	useCache := cfg.CacheDir != "" && !cfg.NoCache
	var c *cache.Cache
	if useCache {
		var err error
		c, err = cache.Open(cache.Config{Dir: cfg.CacheDir})
		if err != nil {
			slog.Warn("sweep cache unavailable", slog.String("error", err.Error()))
			useCache = false
		} else {
			defer func() { _ = c.Close() }()
		}
	}

	fp := cache.Fingerprint(gen.Config())
	if useCache {
		table, ok, err := c.Get(fp)
		if err != nil {
			slog.Warn("sweep cache read failed", slog.String("error", err.Error()))
		} else if ok {
			report.CacheHit = true
			var stats sweep.Stats
			stats.Summarize(table)
			slog.Info("sweep cache hit",
				slog.String("fingerprint", fp),
				slog.Int("rows", table.Len()),
			)
			return table, stats, nil
		}
	}

	table, stats, err := gen.Run(ctx)
	if err != nil {
		return nil, sweep.Stats{}, err
	}
	if useCache {
		if err := c.Put(fp, table); err != nil {
			slog.Warn("sweep cache write failed", slog.String("error", err.Error()))
		}
	}
	return table, stats, nil
}

func writeCSV(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func zoneCounts(t *store.Table) map[region.Zone]int {
	counts := make(map[region.Zone]int)
	for _, r := range t.Rows() {
		counts[r.Zone]++
	}
	return counts
}
