// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

// Legacy formulation after Tong et al., "Modeling and Analysis of a
// Dual-Active-Bridge DC-DC Converter with Triple-Phase-Shift Control,"
// 2016. Modes 1, 2 and 5 carry validated closed forms; the remaining
// rows of the paper's mode table do not and are not modeled.
//
// The physical equations factor through the scaled contract with
// K_P = V1^2*Th/L and K_I = V1*Th/L, where Th is the half switching
// period and m = V2/V1 (no transformer scaling).
//
// All three modes share one squared-RMS skeleton that differs only in
// two of the four cross terms. Near m = 1 the (1-m)-structured
// differences cancel and the skeleton can evaluate negative inside a
// feasible cone; the sweep drops and counts those points.

// LegacySet returns the Tong formula set: Modes 1, 2 and 5.
func LegacySet() Set {
	return Set{
		{Zone: ModeTPS1, Feasible: mode1Feasible, Power: mode1Power, SquaredRMS: mode1SquaredRMS},
		{Zone: ModeTPS2, Feasible: mode2Feasible, Power: mode2Power, SquaredRMS: mode2SquaredRMS},
		{Zone: ModeTPS5, Feasible: mode5Feasible, Power: mode5Power, SquaredRMS: mode5SquaredRMS},
	}
}

// bShape is the cubic B(u) = 0.25 - 1.5u^2 + u^3 appearing in every
// term of the Tong squared-RMS skeleton.
func bShape(u float64) float64 {
	return 0.25 - 1.5*u*u + u*u*u
}

// legacySquaredRMS evaluates the shared skeleton. a and b are the two
// mode-specific cross-term arguments.
func legacySquaredRMS(c Control, m, a, b float64) float64 {
	return (0.125/3.0)*(1+m*m) +
		(0.5/3.0)*bShape(c.D1) +
		(0.5/3.0)*bShape(c.D2)*m*m -
		(0.5/3.0)*m*(bShape(c.D0)+bShape(a)+bShape(b)+bShape(c.D0+c.D2-c.D1))
}

func mode1Feasible(c Control, m float64) bool {
	return c.D1 < c.D0 &&
		c.D1 < c.D0+c.D2 &&
		c.D0+c.D2 < 1
}

func mode1Power(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return -m * (-d0 + d0*d0 + 0.5*d1 - d0*d1 + 0.5*d1*d1 - 0.5*d2 + d0*d2 - 0.5*d1*d2 + 0.5*d2*d2)
}

func mode1SquaredRMS(c Control, m float64) float64 {
	return legacySquaredRMS(c, m, c.D0+c.D2, c.D0-c.D1)
}

func mode2Feasible(c Control, m float64) bool {
	return c.D1 < c.D0 &&
		c.D0+c.D2 > 1 &&
		c.D0+c.D2 < 1+c.D1
}

func mode2Power(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return m * (-0.5 + 0.5*d0*d0 + 0.5*d1 - d0*d1 + 0.5*d1*d1 + 0.5*d2 - 0.5*d1*d2)
}

func mode2SquaredRMS(c Control, m float64) float64 {
	return legacySquaredRMS(c, m, 2-c.D0-c.D2, c.D0-c.D1)
}

func mode5Feasible(c Control, m float64) bool {
	return c.D0 < c.D1 &&
		c.D1 < c.D0+c.D2 &&
		c.D0+c.D2 < 1
}

func mode5Power(c Control, m float64) float64 {
	d0, d1, d2 := c.D0, c.D1, c.D2
	return -m * (-d0 + 0.5*d0*d0 + 0.5*d1 - 0.5*d2 + d0*d2 - 0.5*d1*d2 + 0.5*d2*d2)
}

func mode5SquaredRMS(c Control, m float64) float64 {
	return legacySquaredRMS(c, m, c.D0+c.D2, c.D1-c.D0)
}
