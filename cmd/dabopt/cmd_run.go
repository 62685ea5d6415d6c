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
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDAB/pkg/ux"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/pipeline"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

var runNoCache bool // Bypass the sweep cache

func init() {
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false,
		"Recompute even when a cached table matches")
}

// runRunCommand executes the full batch pipeline: sweep (or cache hit),
// candidate export, target selection, optimal export.
func runRunCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal(err)
	}
	design, err := cfg.DeriveDesign()
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report pipeline.Report
	err = ux.WithSpinner("running optimizer pipeline", func() error {
		var err error
		report, err = pipeline.Run(ctx, cfg.PipelineConfig(design, runNoCache))
		return err
	})
	if err != nil {
		fatal(err)
	}

	ux.Title("Pipeline report")
	ux.KeyValue("run_id", report.RunID)
	ux.KeyValue("cache_hit", fmt.Sprintf("%t", report.CacheHit))
	ux.KeyValue("candidates", fmt.Sprintf("%d", report.Rows))
	for _, zone := range sortedZones(report.ZoneCounts) {
		ux.KeyValue("zone_"+zone.String(), fmt.Sprintf("%d", report.ZoneCounts[zone]))
	}
	ux.KeyValue("selected", fmt.Sprintf("%d", report.SelectStats.Selected))
	ux.KeyValue("no_solution", fmt.Sprintf("%d", report.SelectStats.NoSolution))
	if report.SelectStats.Selected > 0 {
		ux.KeyValue("mean_abs_error_w", fmt.Sprintf("%.3f", report.SelectStats.MeanAbsErrorW))
		ux.KeyValue("worst_abs_error_w", fmt.Sprintf("%.3f", report.SelectStats.WorstAbsErrorW))
	}
	ux.KeyValue("duration", report.Duration.String())
	ux.Success(fmt.Sprintf("outputs: %s, %s", report.CandidatesOut, report.OptimalOut))
}

func sortedZones(counts map[region.Zone]int) []region.Zone {
	zones := make([]region.Zone, 0, len(counts))
	for z := range counts {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i] < zones[j] })
	return zones
}
