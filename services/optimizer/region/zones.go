// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import "math"

// Zone formulation after Das & Basu, "Optimal Design of a
// Dual-Active-Bridge DC-DC Converter," IEEE Trans. Ind. Electron., 2021.
// Power closed forms are the paper's Eq. 8, squared-RMS closed forms
// Eq. 9, and the ZVS feasibility predicates Table I.
//
// The predicates here use strict inequalities: boundary points belong
// to no zone, so a grid point on a region border is never recorded
// twice. The sweep generator's augmentation passes recover the
// boundary coverage separately (the optimal modulation trajectory lives
// exactly on those borders).

// ZoneSet returns the default formula set: Zones I, II and V.
//
// Zone II is structurally empty for m > 1: its second and third
// predicates require m*d0 < d1*(1-m) < 0 and m*d0 > d1*(m-1) > 0
// simultaneously, which is impossible for d0 > 0. The generator
// tolerates the empty contribution silently.
func ZoneSet() Set {
	return Set{
		{Zone: ZoneI, Feasible: zoneIFeasible, Power: zoneIPower, SquaredRMS: zoneISquaredRMS},
		{Zone: ZoneII, Feasible: zoneIIFeasible, Power: zoneIIPower, SquaredRMS: zoneIISquaredRMS},
		{Zone: ZoneV, Feasible: zoneVFeasible, Power: zoneVPower, SquaredRMS: zoneVSquaredRMS},
	}
}

func zoneIFeasible(c Control, m float64) bool {
	return c.D1-c.D2*m > 0 &&
		c.D0-c.D2+c.D2*m > 0 &&
		c.D2+c.D0-c.D2*m < 0
}

func zoneIPower(c Control, m float64) float64 {
	return 0.5 * m * math.Pi * c.D0 * c.D2
}

func zoneISquaredRMS(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return (math.Pi * math.Pi / 12.0) * (-2*d1*d1*d1 +
		3*d1*d1*d2*m +
		3*d1*d1 -
		6*d1*d2*m -
		2*d2*d2*d2*m*m +
		d2*d2*d2*m +
		3*d2*d2*m*m +
		3*d2*d0*d0*m)
}

func zoneIIFeasible(c Control, m float64) bool {
	return c.D1-c.D2*m < 0 &&
		c.D1*m-c.D1+m*c.D0 < 0 &&
		c.D1-c.D1*m+m*c.D0 > 0
}

func zoneIIPower(c Control, m float64) float64 {
	return 0.5 * m * math.Pi * c.D0 * c.D1
}

func zoneIISquaredRMS(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return (math.Pi * math.Pi / 12.0) * (d1*d1*d1*m -
		2*d1*d1*d1 +
		3*d1*d1 +
		3*d1*d2*d2*m -
		6*d1*d2*m +
		3*d1*d0*d0*m -
		2*d2*d2*d2*m*m +
		3*d2*d2*m*m)
}

// ZoneVFeasibleInclusive is the non-strict variant of the Zone V
// predicate. The sweep's boundary-focused augmentation passes use it to
// keep the minimum-power Zone V points that the strict grid mask
// excludes.
func ZoneVFeasibleInclusive(c Control, m float64) bool {
	return c.D1-2*m+m*c.D0+m*c.D1 >= 0 &&
		c.D2+c.D0+m*c.D2-2 >= 0 &&
		c.D0-c.D2+c.D2*m >= 0 &&
		c.D1-c.D1*m+m*c.D0 >= 0
}

func zoneVFeasible(c Control, m float64) bool {
	return c.D1-2*m+m*c.D0+m*c.D1 > 0 &&
		c.D2+c.D0+m*c.D2-2 > 0 &&
		c.D0-c.D2+c.D2*m > 0 &&
		c.D1-c.D1*m+m*c.D0 > 0
}

func zoneVPower(c Control, m float64) float64 {
	u1 := 1 - c.D1
	u2 := 1 - c.D2
	u0 := 1 - c.D0
	return 0.25 * m * math.Pi * (1 - u1*u1 - u2*u2 - u0*u0)
}

func zoneVSquaredRMS(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return (math.Pi * math.Pi / 12.0) * (-2*d1*d1*d1 -
		3*d1*d1*d0*m +
		3*d1*d1*m +
		3*d1*d1 +
		6*d1*d0*m -
		6*d1*m -
		2*d2*d2*d2*m*m -
		3*d2*d2*d0*m +
		3*d2*d2*m*m +
		3*d2*d2*m +
		6*d2*d0*m -
		6*d2*m -
		d0*d0*d0*m +
		3*d0*d0*m -
		6*d0*m +
		4*m)
}
