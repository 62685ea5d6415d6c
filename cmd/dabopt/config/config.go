// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config defines the YAML configuration file for the dabopt CLI
// and its translation into engine configurations.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianDAB/pkg/validation"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/pipeline"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/sweep"
)

// Design holds the converter parameters the derivation starts from.
type Design struct {
	V1V     float64 `yaml:"v1_v" validate:"required,gt=0"`
	FsHz    float64 `yaml:"fs_hz" validate:"required,gt=0"`
	PMaxW   float64 `yaml:"p_max_w" validate:"required,gt=0"`
	MStar   float64 `yaml:"m_star" validate:"required,gt=0"`
	V2MinV  float64 `yaml:"v2_min_v" validate:"required,gt=0"`
	V2MaxV  float64 `yaml:"v2_max_v" validate:"required,gt=0"`
	V2StepV float64 `yaml:"v2_step_v" validate:"required,gt=0"`

	// LHenry overrides the derived series inductance when positive.
	LHenry float64 `yaml:"l_h" validate:"gte=0"`
}

// Sweep holds the grid generation settings.
type Sweep struct {
	FormulaSet string  `yaml:"formula_set" validate:"oneof=zone legacy"`
	PhaseStep  float64 `yaml:"phase_step" validate:"gt=0,lt=1"`
	BoundLo    float64 `yaml:"bound_lo" validate:"gt=0,lt=1"`
	BoundHi    float64 `yaml:"bound_hi" validate:"gt=0,lt=1"`
	Augment    bool    `yaml:"augment"`
	Workers    int     `yaml:"workers" validate:"gte=0"`
}

// Select holds the target ladder and selection policy settings.
type Select struct {
	PowerMinW  float64 `yaml:"power_min_w" validate:"gte=0"`
	PowerMaxW  float64 `yaml:"power_max_w" validate:"gt=0"`
	PowerStepW float64 `yaml:"power_step_w" validate:"gt=0"`
	ToleranceW float64 `yaml:"tolerance_w" validate:"gt=0"`

	// MaxNearestErrorW caps the nearest-candidate fallback; negative
	// disables the cap entirely.
	MaxNearestErrorW float64 `yaml:"max_nearest_error_w"`
}

// Output holds export destinations.
type Output struct {
	CandidatesCSV string `yaml:"candidates_csv"`
	OptimalCSV    string `yaml:"optimal_csv"`
	CacheDir      string `yaml:"cache_dir"`
}

// Config is the full dabopt configuration file.
type Config struct {
	Design Design `yaml:"design" validate:"required"`
	Sweep  Sweep  `yaml:"sweep" validate:"required"`
	Select Select `yaml:"select" validate:"required"`
	Output Output `yaml:"output"`
}

// Default returns the reference configuration: the 200 V / 100 kHz /
// 3.5 kW design swept on the zone formula set.
func Default() Config {
	return Config{
		Design: Design{
			V1V:     200,
			FsHz:    100_000,
			PMaxW:   3500,
			MStar:   1.3,
			V2MinV:  45,
			V2MaxV:  55,
			V2StepV: 1,
		},
		Sweep: Sweep{
			FormulaSet: "zone",
			PhaseStep:  sweep.DefaultStep,
			BoundLo:    sweep.DefaultLo,
			BoundHi:    sweep.DefaultHi,
			Augment:    true,
		},
		Select: Select{
			PowerMinW:        0,
			PowerMaxW:        3500,
			PowerStepW:       10,
			ToleranceW:       selector.DefaultToleranceW,
			MaxNearestErrorW: selector.DefaultMaxNearestErrorW,
		},
		Output: Output{
			CandidatesCSV: "data/zone_candidates.csv",
			OptimalCSV:    "data/optimal_operating_points.csv",
			CacheDir:      ".dabcache",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags first, then the semantic constraints tags
// cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	checks := []error{
		validation.OrderedRange("v2_min_v", c.Design.V2MinV, "v2_max_v", c.Design.V2MaxV),
		validation.StepFits("v2_step_v", c.Design.V2StepV, c.Design.V2MinV, c.Design.V2MaxV),
		validation.Fraction("phase_step", c.Sweep.PhaseStep),
		validation.OrderedRange("bound_lo", c.Sweep.BoundLo, "bound_hi", c.Sweep.BoundHi),
		validation.OrderedRange("power_min_w", c.Select.PowerMinW, "power_max_w", c.Select.PowerMaxW),
		validation.StepFits("power_step_w", c.Select.PowerStepW, c.Select.PowerMinW, c.Select.PowerMaxW),
	}
	if c.Output.CandidatesCSV != "" {
		checks = append(checks, validation.CSVPath("candidates_csv", c.Output.CandidatesCSV))
	}
	if c.Output.OptimalCSV != "" {
		checks = append(checks, validation.CSVPath("optimal_csv", c.Output.OptimalCSV))
	}
	for _, err := range checks {
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// Kind resolves the configured formula set.
func (c Config) Kind() (region.Kind, error) {
	return region.KindByName(c.Sweep.FormulaSet)
}

// DeriveDesign runs the design derivation for the configured parameters.
func (c Config) DeriveDesign() (region.Design, error) {
	kind, err := c.Kind()
	if err != nil {
		return region.Design{}, err
	}
	return region.DeriveDesign(region.Params{
		V1V:     c.Design.V1V,
		FsHz:    c.Design.FsHz,
		PMaxW:   c.Design.PMaxW,
		MStar:   c.Design.MStar,
		V2MinV:  c.Design.V2MinV,
		V2MaxV:  c.Design.V2MaxV,
		V2StepV: c.Design.V2StepV,
		LHenry:  c.Design.LHenry,
	}, kind)
}

// SweepConfig builds the generator configuration for a derived design.
func (c Config) SweepConfig(design region.Design) sweep.Config {
	return sweep.Config{
		Design:  design,
		Step:    c.Sweep.PhaseStep,
		Lo:      c.Sweep.BoundLo,
		Hi:      c.Sweep.BoundHi,
		Workers: c.Sweep.Workers,
		Augment: c.Sweep.Augment && design.Kind == region.KindZone,
	}
}

// Policy builds the selection policy.
func (c Config) Policy() selector.Policy {
	return selector.Policy{
		ToleranceW:       c.Select.ToleranceW,
		MaxNearestErrorW: c.Select.MaxNearestErrorW,
	}
}

// PipelineConfig assembles the full batch run configuration.
func (c Config) PipelineConfig(design region.Design, noCache bool) pipeline.Config {
	return pipeline.Config{
		Sweep:         c.SweepConfig(design),
		Policy:        c.Policy(),
		PowerMinW:     c.Select.PowerMinW,
		PowerMaxW:     c.Select.PowerMaxW,
		PowerStepW:    c.Select.PowerStepW,
		CandidatesOut: c.Output.CandidatesCSV,
		OptimalOut:    c.Output.OptimalCSV,
		CacheDir:      c.Output.CacheDir,
		NoCache:       noCache,
	}
}
