// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

func fixtureTable(t *testing.T) *store.Table {
	t.Helper()
	design, err := region.DeriveDesign(region.Params{
		V1V:     200,
		FsHz:    100_000,
		PMaxW:   3500,
		MStar:   1.3,
		V2MinV:  45,
		V2MaxV:  55,
		V2StepV: 5,
	}, region.KindZone)
	require.NoError(t, err)

	return store.New(design, []store.Candidate{
		// v2 = 50 partition: powers 480, 500 (x3), 700.
		{V2: 50, D0: 0.10, D1: 0.50, D2: 0.40, Zone: region.ZoneI, Power: 480, Irms: 3.0},
		{V2: 50, D0: 0.20, D1: 0.60, D2: 0.45, Zone: region.ZoneI, Power: 500, Irms: 2.0},
		{V2: 50, D0: 0.25, D1: 0.62, D2: 0.47, Zone: region.ZoneI, Power: 500, Irms: 2.0},
		{V2: 50, D0: 0.30, D1: 0.65, D2: 0.50, Zone: region.ZoneI, Power: 500, Irms: 4.0},
		{V2: 50, D0: 0.60, D1: 1.00, D2: 1.00, Zone: region.ZoneV, Power: 700, Irms: 6.0},
		// v2 = 55 partition: one candidate.
		{V2: 55, D0: 0.15, D1: 0.55, D2: 0.42, Zone: region.ZoneI, Power: 480, Irms: 3.5},
	})
}

func TestTargets(t *testing.T) {
	targets, err := Targets(0, 3500, 10)
	require.NoError(t, err)
	require.Len(t, targets, 351)
	assert.Equal(t, 0.0, targets[0])
	assert.InDelta(t, 3500, targets[350], 1e-9)

	_, err = Targets(0, 100, 0)
	require.ErrorIs(t, err, ErrInvalidTargets)
	_, err = Targets(200, 100, 10)
	require.ErrorIs(t, err, ErrInvalidTargets)
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
	require.ErrorIs(t, Policy{ToleranceW: 0}.Validate(), ErrInvalidPolicy)
}

func TestSelect_ToleranceBand(t *testing.T) {
	tab := fixtureTable(t)
	got := DefaultPolicy().Select(tab, 50, 501)

	require.True(t, got.Found)
	assert.Equal(t, 500.0, got.PowerW)
	assert.Equal(t, 2.0, got.IrmsA)
	// Two rows share Irms 2.0 at power 500; table order (lower D0)
	// breaks the tie.
	assert.Equal(t, 0.20, got.D0)
	assert.InDelta(t, 1.0, got.PowerErrorW, 1e-12)
	assert.Equal(t, region.ZoneI, got.Zone)
}

func TestSelect_BandPrefersMinIrmsOverNearness(t *testing.T) {
	// Widen the band to cover 480 and 500: 500 wins on Irms even though
	// 480 is nearer the 485 target.
	p := Policy{ToleranceW: 25, MaxNearestErrorW: 100}
	got := p.Select(fixtureTable(t), 50, 485)

	require.True(t, got.Found)
	assert.Equal(t, 500.0, got.PowerW)
	assert.Equal(t, 2.0, got.IrmsA)
}

func TestSelect_NearestFallback(t *testing.T) {
	tab := fixtureTable(t)

	// 600 is equidistant from 500 and 700; minimum Irms (2.0 at 500)
	// wins.
	got := DefaultPolicy().Select(tab, 50, 600)
	require.True(t, got.Found)
	assert.Equal(t, 500.0, got.PowerW)
	assert.Equal(t, 2.0, got.IrmsA)
	assert.InDelta(t, 100.0, got.PowerErrorW, 1e-12)

	// 690 is nearest to 700 only.
	got = DefaultPolicy().Select(tab, 50, 690)
	require.True(t, got.Found)
	assert.Equal(t, 700.0, got.PowerW)
	assert.InDelta(t, 10.0, got.PowerErrorW, 1e-12)
}

func TestSelect_NoSolution(t *testing.T) {
	tab := fixtureTable(t)

	got := DefaultPolicy().Select(tab, 50, 900)
	assert.False(t, got.Found)
	assert.Equal(t, region.ZoneNone, got.Zone)
	assert.InDelta(t, 200.0, got.PowerErrorW, 1e-12)
	assert.True(t, math.IsNaN(got.D0))
	assert.True(t, math.IsNaN(got.IrmsA))
	assert.True(t, math.IsNaN(got.PowerW))
	// Design constants survive on no-solution rows.
	assert.Positive(t, got.N)
	assert.Positive(t, got.LHenry)
}

func TestSelect_DisabledCeiling(t *testing.T) {
	p := Policy{ToleranceW: 2, MaxNearestErrorW: -1}
	got := p.Select(fixtureTable(t), 50, 3000)

	require.True(t, got.Found)
	assert.Equal(t, 700.0, got.PowerW)
	assert.InDelta(t, 2300.0, got.PowerErrorW, 1e-12)
}

func TestSelect_EmptyPartition(t *testing.T) {
	got := DefaultPolicy().Select(fixtureTable(t), 47, 500)
	assert.False(t, got.Found)
	assert.True(t, math.IsNaN(got.PowerErrorW))
}

// Shrinking the tolerance restricts the band, so the selected Irms can
// only stay or grow.
func TestSelect_ToleranceMonotonicity(t *testing.T) {
	tab := fixtureTable(t)
	target := 485.0

	prev := math.Inf(1)
	for _, tol := range []float64{50, 25, 10, 2} {
		p := Policy{ToleranceW: tol, MaxNearestErrorW: -1}
		got := p.Select(tab, 50, target)
		require.True(t, got.Found, "tol=%g", tol)
		if !math.IsInf(prev, 1) {
			assert.GreaterOrEqual(t, got.IrmsA, prev, "tol=%g", tol)
		}
		prev = got.IrmsA
	}
}

func TestSelectAll_OrderAndStats(t *testing.T) {
	tab := fixtureTable(t)
	targets := []float64{480, 600, 2000}

	res, err := DefaultPolicy().SelectAll(context.Background(), tab, targets)
	require.NoError(t, err)
	require.Len(t, res.Points, 6)

	// (V2, TargetW) lexicographic order.
	for i, want := range []struct{ v2, target float64 }{
		{50, 480}, {50, 600}, {50, 2000},
		{55, 480}, {55, 600}, {55, 2000},
	} {
		assert.Equal(t, want.v2, res.Points[i].V2, "row %d", i)
		assert.Equal(t, want.target, res.Points[i].TargetW, "row %d", i)
	}

	// 2000 W is unattainable in both partitions; 600 W falls back at
	// v2=55 to a 120 W distance, beyond the 100 W ceiling.
	assert.Equal(t, 3, res.Stats.NoSolution)
	assert.Equal(t, 3, res.Stats.Selected)
	// Worst error is the v2=55 partition's unattained 2000 W target,
	// 1520 W from its single 480 W candidate.
	assert.Equal(t, 1520.0, res.Stats.WorstAbsErrorW)
	assert.Positive(t, res.Stats.MeanAbsErrorW)
}

func TestSelectAll_InvalidInputs(t *testing.T) {
	tab := fixtureTable(t)

	_, err := Policy{}.SelectAll(context.Background(), tab, []float64{100})
	require.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = DefaultPolicy().SelectAll(context.Background(), tab, nil)
	require.ErrorIs(t, err, ErrInvalidTargets)
}

func TestSelectAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DefaultPolicy().SelectAll(ctx, fixtureTable(t), []float64{100})
	require.ErrorIs(t, err, context.Canceled)
}
