// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDAB/pkg/ux"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/solver"
)

var (
	solveZone   string  // Region identifier (I, II, V, M1, M2, M5)
	solveV2     float64 // Secondary voltage (V)
	solveTarget float64 // Target power (W)
	solveD0     float64 // Fixed outer shift
	solveD1     float64 // Fixed primary duty
	solveD2     float64 // Fixed secondary duty
)

func init() {
	solveCmd.Flags().StringVar(&solveZone, "zone", "",
		"Region to solve in (I, II, V for zone set; M1, M2, M5 for legacy)")
	solveCmd.Flags().Float64Var(&solveV2, "v2", 0,
		"Secondary voltage in volts")
	solveCmd.Flags().Float64Var(&solveTarget, "target", 0,
		"Target power in watts")
	solveCmd.Flags().Float64Var(&solveD0, "d0", 0, "Fixed outer phase shift")
	solveCmd.Flags().Float64Var(&solveD1, "d1", 0, "Fixed primary duty")
	solveCmd.Flags().Float64Var(&solveD2, "d2", 0, "Fixed secondary duty")
	_ = solveCmd.MarkFlagRequired("zone")
	_ = solveCmd.MarkFlagRequired("v2")
	_ = solveCmd.MarkFlagRequired("target")
}

// runSolveCommand solves the one unset phase-shift coordinate for a
// target power; exactly two of --d0/--d1/--d2 must be given.
func runSolveCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal(err)
	}
	design, err := cfg.DeriveDesign()
	if err != nil {
		fatal(err)
	}

	zone, err := region.ZoneFromString(solveZone)
	if err != nil {
		fatal(err)
	}
	sv, err := solver.New(design, zone, solveV2)
	if err != nil {
		fatal(err)
	}

	d0Set := cmd.Flags().Changed("d0")
	d1Set := cmd.Flags().Changed("d1")
	d2Set := cmd.Flags().Changed("d2")
	set := 0
	for _, s := range []bool{d0Set, d1Set, d2Set} {
		if s {
			set++
		}
	}
	if set != 2 {
		fatal(fmt.Errorf("exactly two of --d0, --d1, --d2 must be given"))
	}

	var (
		solvedName string
		root       float64
		ctrl       region.Control
	)
	switch {
	case !d0Set:
		root, err = sv.SolveD0(solveD1, solveD2, solveTarget)
		ctrl = region.Control{D0: root, D1: solveD1, D2: solveD2}
		solvedName = "d0"
	case !d1Set:
		root, err = sv.SolveD1(solveD0, solveD2, solveTarget)
		ctrl = region.Control{D0: solveD0, D1: root, D2: solveD2}
		solvedName = "d1"
	default:
		root, err = sv.SolveD2(solveD0, solveD1, solveTarget)
		ctrl = region.Control{D0: solveD0, D1: solveD1, D2: root}
		solvedName = "d2"
	}
	if err != nil {
		fatal(err)
	}

	sol := sv.Evaluate(ctrl)

	ux.Title(fmt.Sprintf("Solved %s in region %s", solvedName, zone))
	ux.KeyValue(solvedName, fmt.Sprintf("%.6f", root))
	ux.KeyValue("d0_delta", fmt.Sprintf("%.6f", ctrl.D0))
	ux.KeyValue("d1", fmt.Sprintf("%.6f", ctrl.D1))
	ux.KeyValue("d2", fmt.Sprintf("%.6f", ctrl.D2))
	ux.KeyValue("power_w", fmt.Sprintf("%.3f", sol.PowerW))
	ux.KeyValue("irms_a", fmt.Sprintf("%.4f", sol.IrmsA))
	if sol.Feasible {
		ux.Success("operating point lies inside the region")
	} else {
		ux.Warning("operating point violates the region constraints")
	}
}
