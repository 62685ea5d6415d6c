// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sweep

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

// DropCounters count grid evaluations rejected by the generation
// filters, by reason.
type DropCounters struct {
	// NonPositivePower counts points whose closed-form power was <= 0
	// (degenerate operating points).
	NonPositivePower int64

	// OverCeiling counts points whose physical power exceeded the
	// configured ceiling.
	OverCeiling int64

	// NegativeSquaredRMS counts points whose i2 polynomial went
	// negative, a model-validity failure near region borders.
	NegativeSquaredRMS int64
}

// Total returns the sum over all reasons.
func (d DropCounters) Total() int64 {
	return d.NonPositivePower + d.OverCeiling + d.NegativeSquaredRMS
}

func (d *DropCounters) merge(o DropCounters) {
	d.NonPositivePower += o.NonPositivePower
	d.OverCeiling += o.OverCeiling
	d.NegativeSquaredRMS += o.NegativeSquaredRMS
}

// IrmsSummary aggregates the physical RMS current of the kept
// candidates in one region.
type IrmsSummary struct {
	Count int
	MinA  float64
	MaxA  float64
	MeanA float64
}

// Stats describes one sweep run.
type Stats struct {
	// RunID uniquely identifies the run in logs and metrics.
	RunID string

	// Evaluated is the number of (control, region) evaluations whose
	// feasibility mask held, before the value filters.
	Evaluated int64

	// Kept is the table row count after dedup.
	Kept int

	// KeptByZone counts kept rows per region per design point.
	KeptByZone map[region.Zone]map[float64]int

	// Dropped are the filter rejections by reason.
	Dropped DropCounters

	// Irms summarizes the kept candidates' RMS current per region.
	Irms map[region.Zone]IrmsSummary

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Summarize fills Kept, KeptByZone and Irms from a deduplicated table,
// so the aggregates describe what the caller actually received rather
// than the pre-dedup stream. The pipeline reuses it to describe tables
// restored from cache.
func (s *Stats) Summarize(t *store.Table) {
	s.Kept = t.Len()
	s.KeptByZone = make(map[region.Zone]map[float64]int)

	byZone := make(map[region.Zone][]float64)
	for _, r := range t.Rows() {
		points, ok := s.KeptByZone[r.Zone]
		if !ok {
			points = make(map[float64]int)
			s.KeptByZone[r.Zone] = points
		}
		points[r.V2]++
		byZone[r.Zone] = append(byZone[r.Zone], r.Irms)
	}

	s.Irms = make(map[region.Zone]IrmsSummary, len(byZone))
	for zone, irms := range byZone {
		s.Irms[zone] = IrmsSummary{
			Count: len(irms),
			MinA:  floats.Min(irms),
			MaxA:  floats.Max(irms),
			MeanA: stat.Mean(irms, nil),
		}
	}
}
