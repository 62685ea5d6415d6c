// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sweep

import (
	"math"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

// Augmentation constants. The uniform grid undersamples the low-power
// optimal trajectory and the Zone V entry boundary, which is exactly
// where the selector needs resolution; these passes sample both
// directly.
const (
	// analyticalSamples is the power-axis sample count per analytical
	// region.
	analyticalSamples = 1000

	// fineStep is the d1=1 plane resolution, twice the default grid.
	fineStep = 0.005

	// boundaryD2Samples and boundaryD0Samples shape the Zone V entry
	// boundary trace: many d2 columns, a thin d0 band above the
	// boundary.
	boundaryD2Samples = 500
	boundaryD0Samples = 15

	// boundaryBand is the d0 band height above the entry boundary.
	boundaryBand = 0.03

	// boundaryD0Floor keeps the trace off the d0=0 degeneracy.
	boundaryD0Floor = 0.001
)

// augmentDesignPoint runs the three zone-set augmentation passes at one
// design point. Rows share the grid sweep's filters and counters; the
// table constructor deduplicates any overlap with the grid.
func (g *Generator) augmentDesignPoint(v2 float64, out []store.Candidate, evaluated *int64, drops *DropCounters) []store.Candidate {
	m := g.cfg.Design.M(v2)
	out = g.augmentAnalyticalPath(v2, m, out, evaluated, drops)
	out = g.augmentFullD1Plane(v2, m, out, evaluated, drops)
	out = g.augmentBoundaryTrace(v2, m, out, evaluated, drops)
	return out
}

// augmentAnalyticalPath samples the closed-form minimum-current
// trajectory (Das & Basu Table III): the Zone I boundary path below
// pc1 and the single-phase-shift path above pc2. Between the two
// critical powers the optimum is interior and the grid covers it.
func (g *Generator) augmentAnalyticalPath(v2, m float64, out []store.Candidate, evaluated *int64, drops *DropCounters) []store.Candidate {
	zoneI, okI := g.set.ModelFor(region.ZoneI)
	zoneV, okV := g.set.ModelFor(region.ZoneV)
	if !okI || !okV {
		return out
	}
	pLimit := g.cfg.Design.PLimit(m)

	// Low-power branch. At m=1 the path degenerates to the origin.
	if pHi := math.Min(region.Pc1(m), pLimit); pHi > 0 && m != 1 {
		for k := 1; k <= analyticalSamples; k++ {
			p := pHi * float64(k) / analyticalSamples
			var c region.Control
			if m > 1 {
				d2 := math.Sqrt(2 * p / (math.Pi * m * (m - 1)))
				c = region.Control{D0: (m - 1) * d2, D1: m * d2, D2: d2}
			} else {
				d1 := math.Sqrt(2 * p / ((1 - m) * math.Pi))
				d2 := d1 / m
				c = region.Control{D0: (1 - m) * d2, D1: d1, D2: d2}
			}
			if !inUnitRange(c) {
				continue
			}
			*evaluated++
			out = g.appendCandidate(out, v2, m, c, region.ZoneI, p, zoneI.SquaredRMS(c, m), drops)
		}
	}

	// Single-phase-shift branch: d1 = d2 = 1, delta from the inverted
	// SPS power equation. Empty when pc2 already exceeds the ceiling.
	if pLo := region.Pc2(m); pLo < pLimit {
		for k := 1; k <= analyticalSamples; k++ {
			p := pLo + (pLimit-pLo)*float64(k)/analyticalSamples
			c := region.Control{D0: 1 - math.Sqrt(1-4*p/(m*math.Pi)), D1: 1, D2: 1}
			if !inUnitRange(c) {
				continue
			}
			*evaluated++
			out = g.appendCandidate(out, v2, m, c, region.ZoneV, p, zoneV.SquaredRMS(c, m), drops)
		}
	}
	return out
}

// augmentFullD1Plane sweeps the d1=1 plane at fine resolution under the
// boundary-inclusive Zone V mask. The axis runs past the grid's Hi up
// to 1.0 inclusive: the strict grid mask rejects the plane's own edge,
// and the highest-power candidates live on the d2 = 1 column.
func (g *Generator) augmentFullD1Plane(v2, m float64, out []store.Candidate, evaluated *int64, drops *DropCounters) []store.Candidate {
	zoneV, ok := g.set.ModelFor(region.ZoneV)
	if !ok {
		return out
	}
	fineAxis := gridAxis(g.cfg.Lo, 1, fineStep)
	for _, d2 := range fineAxis {
		for _, d0 := range fineAxis {
			c := region.Control{D0: d0, D1: 1, D2: d2}
			if !region.ZoneVFeasibleInclusive(c, m) {
				continue
			}
			*evaluated++
			out = g.appendCandidate(out, v2, m, c, region.ZoneV,
				zoneV.Power(c, m), zoneV.SquaredRMS(c, m), drops)
		}
	}
	return out
}

// augmentBoundaryTrace samples a thin band just above the Zone V entry
// boundary at d1=1, where minimum-current points concentrate between
// pc1 and pc2.
func (g *Generator) augmentBoundaryTrace(v2, m float64, out []store.Candidate, evaluated *int64, drops *DropCounters) []store.Candidate {
	zoneV, ok := g.set.ModelFor(region.ZoneV)
	if !ok {
		return out
	}
	d2Lo := math.Max(1/m, 0.01)
	if d2Lo >= 1 {
		return out
	}
	for i := 0; i < boundaryD2Samples; i++ {
		d2 := d2Lo + (1-d2Lo)*float64(i)/(boundaryD2Samples-1)
		d0Min := math.Max(math.Max((m-1)/m, 2-(1+m)*d2), boundaryD0Floor)
		d0Max := math.Min(d0Min+boundaryBand, 1)
		if d0Min > d0Max {
			continue
		}
		for j := 0; j < boundaryD0Samples; j++ {
			d0 := d0Min + (d0Max-d0Min)*float64(j)/(boundaryD0Samples-1)
			c := region.Control{D0: d0, D1: 1, D2: d2}
			if !region.ZoneVFeasibleInclusive(c, m) {
				continue
			}
			*evaluated++
			out = g.appendCandidate(out, v2, m, c, region.ZoneV,
				zoneV.Power(c, m), zoneV.SquaredRMS(c, m), drops)
		}
	}
	return out
}

// inUnitRange reports whether every coordinate lies in (0, 1].
func inUnitRange(c region.Control) bool {
	return c.D0 > 0 && c.D0 <= 1 &&
		c.D1 > 0 && c.D1 <= 1 &&
		c.D2 > 0 && c.D2 <= 1
}
