// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZone_String_RoundTrip(t *testing.T) {
	zones := []Zone{ZoneI, ZoneII, ZoneV, ModeTPS1, ModeTPS2, ModeTPS5, ZoneNone}
	for _, z := range zones {
		t.Run(z.String(), func(t *testing.T) {
			back, err := ZoneFromString(z.String())
			require.NoError(t, err)
			assert.Equal(t, z, back)
		})
	}
}

func TestZoneFromString_Unknown(t *testing.T) {
	_, err := ZoneFromString("IX")
	require.ErrorIs(t, err, ErrUnknownZone)
}

func TestKindByName(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"zone", KindZone, false},
		{"", KindZone, false},
		{"legacy", KindLegacy, false},
		{"tps", KindZone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindByName(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormulaSet)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSet_ModelFor(t *testing.T) {
	set := ZoneSet()

	model, ok := set.ModelFor(ZoneV)
	require.True(t, ok)
	assert.Equal(t, ZoneV, model.Zone)

	_, ok = set.ModelFor(ModeTPS1)
	assert.False(t, ok)
}

// Repeated evaluation must be bit-stable: no randomness, no global state.
func TestFeasibilityPartition_Stable(t *testing.T) {
	t.Parallel()

	sets := map[string]Set{"zone": ZoneSet(), "legacy": LegacySet()}
	c := Control{D0: 0.31, D1: 0.62, D2: 0.47}
	m := 1.3

	for name, set := range sets {
		t.Run(name, func(t *testing.T) {
			for _, model := range set {
				first := model.Feasible(c, m)
				firstP := model.Power(c, m)
				firstI2 := model.SquaredRMS(c, m)
				for i := 0; i < 100; i++ {
					assert.Equal(t, first, model.Feasible(c, m))
					assert.Equal(t, firstP, model.Power(c, m))
					assert.Equal(t, firstI2, model.SquaredRMS(c, m))
				}
			}
		})
	}
}

// Strict predicates: a point exactly on a region border belongs to no
// region.
func TestZoneI_BoundaryInfeasible(t *testing.T) {
	m := 1.3
	// d1 == d2*m puts the point exactly on the Zone I/II border.
	c := Control{D0: 0.2, D1: 0.5 * m, D2: 0.5}
	assert.False(t, zoneIFeasible(c, m))
	assert.False(t, zoneIIFeasible(c, m))
}

// Zone II's ZVS cone is structurally empty for m > 1.
func TestZoneII_EmptyForMGreaterThanOne(t *testing.T) {
	t.Parallel()

	for _, m := range []float64{1.01, 1.3, 1.589} {
		for d0 := 0.05; d0 < 1; d0 += 0.05 {
			for d1 := 0.05; d1 < 1; d1 += 0.05 {
				for d2 := 0.05; d2 < 1; d2 += 0.05 {
					c := Control{D0: d0, D1: d1, D2: d2}
					if zoneIIFeasible(c, m) {
						t.Fatalf("Zone II feasible at %+v, m=%g", c, m)
					}
				}
			}
		}
	}
}

// The feasibility cones are mutually exclusive on a coarse probe grid.
// The engine does not rely on this, but the formula sets are built that
// way and a violation would signal a transcription error.
func TestPredicates_MutuallyExclusive(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		set  Set
		m    float64
	}{
		{"zone m=1.3", ZoneSet(), 1.3},
		{"zone m=1.589", ZoneSet(), 1.589},
		{"legacy m=0.25", LegacySet(), 0.25},
		{"legacy m=0.98", LegacySet(), 0.98},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for d0 := 0.03; d0 < 1; d0 += 0.07 {
				for d1 := 0.03; d1 < 1; d1 += 0.07 {
					for d2 := 0.03; d2 < 1; d2 += 0.07 {
						c := Control{D0: d0, D1: d1, D2: d2}
						count := 0
						for _, model := range tc.set {
							if model.Feasible(c, tc.m) {
								count++
							}
						}
						if count > 1 {
							t.Fatalf("%d regions feasible at %+v, m=%g", count, c, tc.m)
						}
					}
				}
			}
		})
	}
}

func TestZoneI_PowerClosedForm(t *testing.T) {
	c := Control{D0: 0.3, D1: 0.8, D2: 0.5}
	m := 1.3
	assert.InDelta(t, 0.5*m*math.Pi*0.3*0.5, zoneIPower(c, m), 1e-15)
}

func TestZoneV_PowerAtFullShift(t *testing.T) {
	// d1 = d2 = d0 = 1 is the analytic power maximum m*pi/4.
	c := Control{D0: 1, D1: 1, D2: 1}
	m := 1.3
	assert.InDelta(t, m*math.Pi/4, zoneVPower(c, m), 1e-15)
}

// The scaled legacy skeleton times K_I^2 must reproduce the published
// physical equation, here written out with explicit voltages as an
// independent arrangement of the same algebra.
func TestLegacy_SquaredRMSMatchesPhysicalForm(t *testing.T) {
	t.Parallel()

	const (
		v1 = 200.0
		v2 = 50.0
		th = 1e-5
		l  = 20e-6
	)
	m := v2 / v1
	scaleI := v1 * th / l

	b := func(u float64) float64 { return 0.25 - 1.5*u*u + u*u*u }
	physical := func(d0, d1, d2, a, bb float64) float64 {
		return (th / l) * (th / l) * ((0.125/3)*v1*v1 + (0.125/3)*v2*v2 +
			(0.5/3)*b(d1)*v1*v1 +
			(0.5/3)*b(d2)*v2*v2 -
			(0.5/3)*b(d0)*v1*v2 -
			(0.5/3)*b(a)*v1*v2 -
			(0.5/3)*b(bb)*v1*v2 -
			(0.5/3)*b(d0+d2-d1)*v1*v2)
	}

	tests := []struct {
		name string
		c    Control
		i2   func(Control, float64) float64
		a, b func(Control) float64
	}{
		{
			name: "mode1",
			c:    Control{D0: 0.65, D1: 0.32, D2: 0.20},
			i2:   mode1SquaredRMS,
			a:    func(c Control) float64 { return c.D0 + c.D2 },
			b:    func(c Control) float64 { return c.D0 - c.D1 },
		},
		{
			name: "mode2",
			c:    Control{D0: 0.81, D1: 0.41, D2: 0.36},
			i2:   mode2SquaredRMS,
			a:    func(c Control) float64 { return 2 - c.D0 - c.D2 },
			b:    func(c Control) float64 { return c.D0 - c.D1 },
		},
		{
			name: "mode5",
			c:    Control{D0: 0.21, D1: 0.46, D2: 0.41},
			i2:   mode5SquaredRMS,
			a:    func(c Control) float64 { return c.D0 + c.D2 },
			b:    func(c Control) float64 { return c.D1 - c.D0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled := tt.i2(tt.c, m)
			want := physical(tt.c.D0, tt.c.D1, tt.c.D2, tt.a(tt.c), tt.b(tt.c))
			assert.InDelta(t, want, scaled*scaleI*scaleI, 1e-9)
		})
	}
}

func TestLegacy_ModeConstraints(t *testing.T) {
	m := 0.25

	// Valid Mode 1 interior point: D1 < D0, D0+D2 < 1.
	assert.True(t, mode1Feasible(Control{D0: 0.6, D1: 0.3, D2: 0.2}, m))
	// D1 == D0 sits on the Mode 1/5 border; strict predicates reject it
	// on both sides.
	border := Control{D0: 0.4, D1: 0.4, D2: 0.3}
	assert.False(t, mode1Feasible(border, m))
	assert.False(t, mode5Feasible(border, m))

	// Mode 2 requires D0+D2 > 1.
	assert.True(t, mode2Feasible(Control{D0: 0.8, D1: 0.5, D2: 0.4}, m))
	assert.False(t, mode2Feasible(Control{D0: 0.5, D1: 0.3, D2: 0.2}, m))

	// Mode 5 requires D0 < D1 < D0+D2.
	assert.True(t, mode5Feasible(Control{D0: 0.2, D1: 0.45, D2: 0.4}, m))
}

func TestZoneVFeasibleInclusive_AcceptsBoundary(t *testing.T) {
	m := 1.3
	// SPS corner: d1 = d2 = 1 with delta at the Zone V entry boundary
	// (m-1)/m sits exactly on two constraint borders.
	c := Control{D0: (m - 1) / m, D1: 1, D2: 1}
	assert.True(t, ZoneVFeasibleInclusive(c, m))
	assert.False(t, zoneVFeasible(c, m))
}
