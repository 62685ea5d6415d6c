// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package selector picks the minimum-current operating point for each
// (secondary voltage, target power) pair from a candidate table.
//
// Selection is a pure read of the immutable table: a tolerance band
// around the target first, the nearest achievable power as fallback,
// and an explicit no-solution marker when even the nearest candidate
// is too far away to trust.
package selector

import (
	"fmt"
	"math"
	"sort"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

const (
	// DefaultToleranceW is the half-width of the exact-match power band.
	DefaultToleranceW = 2.0

	// DefaultMaxNearestErrorW bounds the fallback: a nearest candidate
	// further than this from the target is reported as no solution
	// rather than silently selected.
	DefaultMaxNearestErrorW = 100.0
)

// Policy parameterizes target selection.
type Policy struct {
	// ToleranceW is the tolerance band half-width in watts. Must be
	// positive.
	ToleranceW float64

	// MaxNearestErrorW is the fallback distance ceiling in watts. A
	// negative value disables the ceiling: the nearest candidate is
	// always accepted.
	MaxNearestErrorW float64
}

// DefaultPolicy returns the standard selection policy.
func DefaultPolicy() Policy {
	return Policy{
		ToleranceW:       DefaultToleranceW,
		MaxNearestErrorW: DefaultMaxNearestErrorW,
	}
}

// Validate reports whether the policy can ever match.
func (p Policy) Validate() error {
	if p.ToleranceW <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidPolicy, p.ToleranceW)
	}
	return nil
}

// OptimalPoint is one selected operating point, or the explicit record
// of an unattainable target.
type OptimalPoint struct {
	// TargetW and V2 identify the query.
	TargetW float64
	V2      float64

	// Control coordinates. NaN when Found is false.
	D0 float64
	D1 float64
	D2 float64

	// Zone is the selected candidate's region, ZoneNone when Found is
	// false.
	Zone region.Zone

	// IrmsA and PowerW are the selected candidate's physical values;
	// NaN when Found is false.
	IrmsA  float64
	PowerW float64

	// PowerErrorW is |PowerW - TargetW|. For a no-solution point it
	// records the unattained nearest distance instead.
	PowerErrorW float64

	// M and PScaled carry the candidate's scale parameter and scaled
	// power; NaN when Found is false.
	M       float64
	PScaled float64

	// N and LHenry are design constants, always set.
	N      float64
	LHenry float64

	// Found is false for a no-solution point.
	Found bool
}

// Targets builds the inclusive power ladder minW, minW+stepW, ... maxW.
func Targets(minW, maxW, stepW float64) ([]float64, error) {
	if stepW <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %g", ErrInvalidTargets, stepW)
	}
	if minW < 0 || maxW < minW {
		return nil, fmt.Errorf("%w: range [%g, %g]", ErrInvalidTargets, minW, maxW)
	}
	var targets []float64
	for w := minW; w <= maxW+1e-9; w += stepW {
		targets = append(targets, w)
	}
	return targets, nil
}

// Select picks the operating point for one (secondary voltage, target
// power) query.
//
// Description:
//
//	Within the table's v2 partition, first look for candidates inside
//	[target-tol, target+tol] and take the minimum-Irms one, ties going
//	to the earlier table row. If the band is empty, fall back to the
//	candidates at the nearest achievable |Power-target| distance and
//	take the minimum-Irms among them, unless that distance exceeds
//	MaxNearestErrorW, in which case a no-solution point is returned
//	with the unattained distance recorded.
//
// Thread Safety: Safe for concurrent use; the table is never written.
func (p Policy) Select(t *store.Table, v2, targetW float64) OptimalPoint {
	rows := t.Partition(v2)
	if len(rows) == 0 {
		return noSolution(t.Design(), v2, targetW, math.NaN())
	}

	// Partition rows are sorted by (Power, Irms, ...): a binary search
	// lands on the band's lower edge and equal-power ties appear in
	// Irms order, so "first minimum wins" is table order.
	lo := sort.Search(len(rows), func(i int) bool {
		return rows[i].Power >= targetW-p.ToleranceW
	})

	best := -1
	for i := lo; i < len(rows) && rows[i].Power <= targetW+p.ToleranceW; i++ {
		if best < 0 || rows[i].Irms < rows[best].Irms {
			best = i
		}
	}
	if best >= 0 {
		return found(t.Design(), rows[best], targetW)
	}

	// Fallback: nearest achievable power. The candidates are the runs
	// just below and at-or-above the target.
	up := sort.Search(len(rows), func(i int) bool {
		return rows[i].Power >= targetW
	})

	nearest := math.Inf(1)
	if up > 0 {
		nearest = targetW - rows[up-1].Power
	}
	if up < len(rows) {
		nearest = math.Min(nearest, rows[up].Power-targetW)
	}

	if p.MaxNearestErrorW >= 0 && nearest > p.MaxNearestErrorW {
		return noSolution(t.Design(), v2, targetW, nearest)
	}

	best = -1
	// Lower side: the run of rows sharing the power targetW-nearest
	// ends at up-1; its first row has the minimum Irms.
	if up > 0 && targetW-rows[up-1].Power == nearest {
		i := up - 1
		for i > 0 && rows[i-1].Power == rows[up-1].Power {
			i--
		}
		best = i
	}
	// Upper side: the run starting at up. It wins only on strictly
	// smaller Irms, keeping the earlier table row on ties.
	if up < len(rows) && rows[up].Power-targetW == nearest {
		if best < 0 || rows[up].Irms < rows[best].Irms {
			best = up
		}
	}
	return found(t.Design(), rows[best], targetW)
}

func found(d region.Design, c store.Candidate, targetW float64) OptimalPoint {
	return OptimalPoint{
		TargetW:     targetW,
		V2:          c.V2,
		D0:          c.D0,
		D1:          c.D1,
		D2:          c.D2,
		Zone:        c.Zone,
		IrmsA:       c.Irms,
		PowerW:      c.Power,
		PowerErrorW: math.Abs(c.Power - targetW),
		M:           c.M,
		PScaled:     c.PScaled,
		N:           d.N,
		LHenry:      d.L,
		Found:       true,
	}
}

func noSolution(d region.Design, v2, targetW, errW float64) OptimalPoint {
	nan := math.NaN()
	return OptimalPoint{
		TargetW:     targetW,
		V2:          v2,
		D0:          nan,
		D1:          nan,
		D2:          nan,
		Zone:        region.ZoneNone,
		IrmsA:       nan,
		PowerW:      nan,
		PowerErrorW: errW,
		M:           nan,
		PScaled:     nan,
		N:           d.N,
		LHenry:      d.L,
		Found:       false,
	}
}
