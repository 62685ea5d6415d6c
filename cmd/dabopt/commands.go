// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDAB/cmd/dabopt/config"
	"github.com/AleutianAI/AleutianDAB/pkg/logging"
	"github.com/AleutianAI/AleutianDAB/pkg/ux"
)

// --- Global Command Variables ---
var (
	configPath       string
	jsonLogs         bool
	quiet            bool
	logLevel         string
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "dabopt",
		Short: "Offline optimizer for dual-active-bridge converter modulation",
		Long: `dabopt derives a converter design, sweeps the three-phase-shift
modulation space for minimum-current candidates, and selects the
optimal operating point for each power target.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}

			logger := logging.New(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				Service: "dabopt",
				JSON:    jsonLogs,
				Quiet:   quiet,
			})
			slog.SetDefault(logger.Slog())
		},
	}

	// --- Design ---
	designCmd = &cobra.Command{
		Use:   "design",
		Short: "Derive and print the converter design constants",
		Run:   runDesignCommand, // Defined in cmd_design.go
	}

	// --- Sweep ---
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the modulation grid and export the candidate table",
		Run:   runSweepCommand, // Defined in cmd_sweep.go
	}

	// --- Select ---
	selectCmd = &cobra.Command{
		Use:   "select",
		Short: "Select optimal operating points from a candidate table",
		Run:   runSelectCommand, // Defined in cmd_select.go
	}

	// --- Run ---
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: sweep, then select every target",
		Run:   runRunCommand, // Defined in cmd_run.go
	}

	// --- Solve ---
	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Solve one phase-shift coordinate for a target power",
		Run:   runSolveCommand, // Defined in cmd_solve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dab.yaml",
		"Configuration file (defaults apply when the file is absent)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false,
		"Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"Suppress log output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output personality (full, standard, minimal, machine)")

	rootCmd.AddCommand(designCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(solveCmd)
}

// loadConfig reads the configured YAML file, falling back to the
// reference defaults when the file does not exist but the flag was left
// at its default.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// fatal prints the error and exits non-zero.
func fatal(err error) {
	ux.Error(err.Error())
	os.Exit(1)
}
