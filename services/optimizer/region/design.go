// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import (
	"fmt"
	"math"
)

// defaultLegacyInductance is the reference inductance of the Tong 2016
// design (20 uH), used when the caller does not override LHenry.
const defaultLegacyInductance = 20e-6

// Params are the caller-supplied physical constants of one converter
// design. V2 ranges over a ladder of secondary design points.
type Params struct {
	// V1V is the primary DC voltage in volts.
	V1V float64

	// FsHz is the switching frequency in hertz.
	FsHz float64

	// PMaxW is the power ceiling in watts. Candidates above it are
	// dropped during generation.
	PMaxW float64

	// MStar is the target voltage ratio the zone design is optimized
	// for (paper default 1.3). Ignored by the legacy set.
	MStar float64

	// V2MinV, V2MaxV, V2StepV define the inclusive secondary-voltage
	// ladder; each value is one design point.
	V2MinV  float64
	V2MaxV  float64
	V2StepV float64

	// LHenry overrides the inductance. Zero means derive it (zone set)
	// or use the 20 uH reference value (legacy set).
	LHenry float64
}

// Design is an immutable derived configuration record threaded through
// the sweep, selector and solver. Build one with DeriveDesign.
type Design struct {
	Params

	// Kind selects the formula set the design was derived for.
	Kind Kind

	// N is the transformer turns ratio (1 for the legacy set).
	N float64

	// L is the series inductance in henries.
	L float64

	// PStar is the zone design's scaled power optimum p*(m*); zero for
	// the legacy set.
	PStar float64

	// ScaleP converts scaled power to watts: Power = ScaleP * p.
	ScaleP float64

	// ScaleI converts scaled RMS to amperes: Irms = ScaleI * sqrt(i2).
	ScaleI float64
}

// PStarPolynomial is the paper's quartic fit for p*(m) (Das & Basu
// Eq. 15), the scaled power at which the design is optimal.
func PStarPolynomial(m float64) float64 {
	return -1.9*m*m*m*m + 12.6*m*m*m - 30.9*m*m + 34.3*m - 14.07
}

// Pc1 is the lower critical scaled power (Das & Basu Table II). Below
// it the optimal modulation path lies on the Zone I/II boundary.
func Pc1(m float64) float64 {
	if m > 1 {
		return math.Pi * (m - 1) / (2 * m)
	}
	return math.Pi * m * m * (1 - m) / 2
}

// Pc2 is the upper critical scaled power (Das & Basu Table II). Above
// it the optimal path is single phase shift (d1 = d2 = 1).
func Pc2(m float64) float64 {
	if m > 1 {
		return m * math.Pi / 2 * (1 - m*m + m*math.Sqrt(m*m-1))
	}
	return (1 - m*m) * math.Pi / (2 * m) * (-1 + 1/math.Sqrt(1-m*m))
}

// DeriveDesign validates the parameters and computes the derived
// constants for the given formula set.
//
// For the zone set the transformer ratio and inductance follow the
// paper's Section II-F procedure: n = m*.V1/V2min and
// L = p*(m*).V1^2 / (2.pi.fs.Pmax). For the legacy set n = 1 and the
// conversion constants use the half switching period Th = 1/(2.fs).
//
// Invalid parameters are a fatal configuration error (ErrInvalidDesign)
// raised before any grid work begins.
func DeriveDesign(p Params, k Kind) (Design, error) {
	if p.V1V <= 0 {
		return Design{}, fmt.Errorf("%w: primary voltage must be positive, got %g", ErrInvalidDesign, p.V1V)
	}
	if p.FsHz <= 0 {
		return Design{}, fmt.Errorf("%w: switching frequency must be positive, got %g", ErrInvalidDesign, p.FsHz)
	}
	if p.PMaxW <= 0 {
		return Design{}, fmt.Errorf("%w: power ceiling must be positive, got %g", ErrInvalidDesign, p.PMaxW)
	}
	if p.V2MinV <= 0 || p.V2MaxV < p.V2MinV {
		return Design{}, fmt.Errorf("%w: secondary voltage range [%g, %g] is empty or unordered",
			ErrInvalidDesign, p.V2MinV, p.V2MaxV)
	}
	if p.V2StepV <= 0 {
		return Design{}, fmt.Errorf("%w: secondary voltage step must be positive, got %g", ErrInvalidDesign, p.V2StepV)
	}
	if p.LHenry < 0 {
		return Design{}, fmt.Errorf("%w: inductance must be non-negative, got %g", ErrInvalidDesign, p.LHenry)
	}

	d := Design{Params: p, Kind: k}

	switch k {
	case KindZone:
		if p.MStar <= 0 {
			return Design{}, fmt.Errorf("%w: m* must be positive, got %g", ErrInvalidDesign, p.MStar)
		}
		d.PStar = PStarPolynomial(p.MStar)
		if d.PStar <= 0 {
			return Design{}, fmt.Errorf("%w: p*(m*=%g) = %g is not positive; m* outside the fit's valid range",
				ErrInvalidDesign, p.MStar, d.PStar)
		}
		d.N = p.MStar * p.V1V / p.V2MinV
		d.L = p.LHenry
		if d.L == 0 {
			d.L = d.PStar * p.V1V * p.V1V / (2 * math.Pi * p.FsHz * p.PMaxW)
		}
		d.ScaleP = p.V1V * p.V1V / (2 * math.Pi * p.FsHz * d.L)
		d.ScaleI = p.V1V / (2 * math.Pi * p.FsHz * d.L)

	case KindLegacy:
		d.N = 1
		d.L = p.LHenry
		if d.L == 0 {
			d.L = defaultLegacyInductance
		}
		th := 1 / (2 * p.FsHz)
		d.ScaleP = p.V1V * p.V1V * th / d.L
		d.ScaleI = p.V1V * th / d.L

	default:
		return Design{}, fmt.Errorf("%w: kind %d", ErrUnknownFormulaSet, k)
	}

	return d, nil
}

// M returns the scale parameter for one secondary design point:
// m = n.V2/V1.
func (d Design) M(v2 float64) float64 {
	return d.N * v2 / d.V1V
}

// PLimit returns the scaled power ceiling for one design point. The
// zone formulation additionally caps at the analytic maximum m.pi/4.
func (d Design) PLimit(m float64) float64 {
	limit := d.PMaxW / d.ScaleP
	if d.Kind == KindZone {
		limit = math.Min(limit, m*math.Pi/4)
	}
	return limit
}

// DesignPoints returns the inclusive V2 ladder.
func (d Design) DesignPoints() []float64 {
	var points []float64
	for v2 := d.V2MinV; v2 <= d.V2MaxV+1e-12; v2 += d.V2StepV {
		points = append(points, v2)
	}
	return points
}

// Set returns the formula set the design was derived for.
func (d Design) Set() Set {
	return d.Kind.Set()
}
