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
	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

var (
	selCandidates string  // Candidates CSV to select from
	selOut        string  // Optimal points CSV destination
	selPowerMin   float64 // Target ladder start (W)
	selPowerMax   float64 // Target ladder end (W)
	selPowerStep  float64 // Target ladder step (W)
	selTolerance  float64 // Tolerance band (W)
	selMaxError   float64 // Nearest-fallback ceiling (W)
)

func init() {
	selectCmd.Flags().StringVar(&selCandidates, "candidates", "",
		"Candidates CSV to select from (default from config)")
	selectCmd.Flags().StringVarP(&selOut, "out", "o", "",
		"Optimal points CSV destination (default from config)")
	selectCmd.Flags().Float64Var(&selPowerMin, "power-min", 0,
		"Target ladder start in watts")
	selectCmd.Flags().Float64Var(&selPowerMax, "power-max", 0,
		"Target ladder end in watts")
	selectCmd.Flags().Float64Var(&selPowerStep, "power-step", 0,
		"Target ladder step in watts")
	selectCmd.Flags().Float64Var(&selTolerance, "tolerance", 0,
		"Tolerance band in watts")
	selectCmd.Flags().Float64Var(&selMaxError, "max-error", 0,
		"Nearest-fallback ceiling in watts (negative disables)")
}

// runSelectCommand selects the optimal operating point for every target
// in the ladder, from an existing candidate table.
func runSelectCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal(err)
	}

	candidates := cfg.Output.CandidatesCSV
	if selCandidates != "" {
		candidates = selCandidates
	}
	out := cfg.Output.OptimalCSV
	if selOut != "" {
		out = selOut
	}

	powerMin, powerMax, powerStep := cfg.Select.PowerMinW, cfg.Select.PowerMaxW, cfg.Select.PowerStepW
	if cmd.Flags().Changed("power-min") {
		powerMin = selPowerMin
	}
	if cmd.Flags().Changed("power-max") {
		powerMax = selPowerMax
	}
	if cmd.Flags().Changed("power-step") {
		powerStep = selPowerStep
	}

	policy := cfg.Policy()
	if cmd.Flags().Changed("tolerance") {
		policy.ToleranceW = selTolerance
	}
	if cmd.Flags().Changed("max-error") {
		policy.MaxNearestErrorW = selMaxError
	}

	f, err := os.Open(candidates)
	if err != nil {
		fatal(fmt.Errorf("open candidates: %w", err))
	}
	table, err := store.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		fatal(fmt.Errorf("read candidates: %w", err))
	}

	targets, err := selector.Targets(powerMin, powerMax, powerStep)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var result selector.Result
	err = ux.WithSpinner(fmt.Sprintf("selecting %d targets across %d design points",
		len(targets), len(table.V2Values())), func() error {
		var err error
		result, err = policy.SelectAll(ctx, table, targets)
		return err
	})
	if err != nil {
		fatal(err)
	}

	if err := writeOptimalCSV(out, result.Points); err != nil {
		fatal(err)
	}

	ux.SelectSummary(result.Stats.Selected, result.Stats.NoSolution)
	if result.Stats.Selected > 0 {
		ux.Info(fmt.Sprintf("mean |error| %.3f W, worst %.3f W",
			result.Stats.MeanAbsErrorW, result.Stats.WorstAbsErrorW))
	}
	ux.Success(fmt.Sprintf("optimal points written to %s", out))
}

func writeOptimalCSV(path string, points []selector.OptimalPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := selector.WriteCSV(f, points); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
