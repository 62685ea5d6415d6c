// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDAB/pkg/ux"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/cache"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/sweep"
)

var (
	sweepOut     string // Candidates CSV destination (overrides config)
	sweepNoCache bool   // Bypass the sweep cache
)

func init() {
	sweepCmd.Flags().StringVarP(&sweepOut, "out", "o", "",
		"Candidates CSV destination (default from config)")
	sweepCmd.Flags().BoolVar(&sweepNoCache, "no-cache", false,
		"Recompute even when a cached table matches")
}

// runSweepCommand generates the candidate table and exports it.
func runSweepCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal(err)
	}
	design, err := cfg.DeriveDesign()
	if err != nil {
		fatal(err)
	}
	gen, err := sweep.New(cfg.SweepConfig(design))
	if err != nil {
		fatal(err)
	}

	out := cfg.Output.CandidatesCSV
	if sweepOut != "" {
		out = sweepOut
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		table    *store.Table
		stats    sweep.Stats
		cacheHit bool
	)
	err = ux.WithSpinner("sweeping modulation grid", func() error {
		var err error
		table, stats, cacheHit, err = sweepWithCache(ctx, cfg.Output.CacheDir, gen)
		return err
	})
	if err != nil {
		fatal(err)
	}

	if err := writeTableCSV(out, table); err != nil {
		fatal(err)
	}

	if cacheHit {
		ux.Info("cache hit, grid not re-evaluated")
	}
	ux.SweepSummary(int(stats.Evaluated), stats.Kept, int(stats.Dropped.Total()), stats.Duration)
	ux.Success(fmt.Sprintf("candidate table written to %s (%d rows)", out, table.Len()))
}

// sweepWithCache runs the generator, consulting the badger cache when a
// cache directory is configured.
func sweepWithCache(ctx context.Context, cacheDir string, gen *sweep.Generator) (*store.Table, sweep.Stats, bool, error) {
	if cacheDir == "" || sweepNoCache {
		table, stats, err := gen.Run(ctx)
		return table, stats, false, err
	}

	c, err := cache.Open(cache.Config{Dir: cacheDir})
	if err != nil {
		ux.Warning(fmt.Sprintf("sweep cache unavailable: %v", err))
		table, stats, err := gen.Run(ctx)
		return table, stats, false, err
	}
	defer c.Close()

	fp := cache.Fingerprint(gen.Config())
	if table, ok, err := c.Get(fp); err == nil && ok {
		var stats sweep.Stats
		stats.Summarize(table)
		return table, stats, true, nil
	}

	table, stats, err := gen.Run(ctx)
	if err != nil {
		return nil, sweep.Stats{}, false, err
	}
	if err := c.Put(fp, table); err != nil {
		ux.Warning(fmt.Sprintf("sweep cache write failed: %v", err))
	}
	return table, stats, false, nil
}

func writeTableCSV(path string, table *store.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := table.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
