// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package solver computes single operating points on demand: given two
// fixed control coordinates and a target power, find the third
// coordinate whose closed-form power hits the target.
//
// Interactive callers (the HTTP service, the solve subcommand) use it
// to refine a table candidate without re-running a sweep.
package solver

import (
	"fmt"
	"math"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

const (
	// intervalLo and intervalHi bound the modulation coordinate search.
	intervalLo = 0.01
	intervalHi = 0.99

	// bracketPanels is the resolution of the sign-change scan. The
	// power closed forms are low-order polynomials in each coordinate,
	// so 64 panels cannot skip a root pair.
	bracketPanels = 64

	// convergeTol and maxIterations bound the Brent iteration.
	convergeTol   = 1e-10
	maxIterations = 100

	// machEps is the double-precision machine epsilon.
	machEps = 2.220446049250313e-16
)

// Solver finds control coordinates for one (design, region, design
// point) context.
//
// Thread Safety: Safe for concurrent use; the solver is stateless.
type Solver struct {
	design region.Design
	model  region.Model
	m      float64
	v2     float64
}

// Solution describes an evaluated operating point. Feasibility failure
// is reported here, not as a solve error: the root is mathematically
// valid and interactive callers display the zone violation instead.
type Solution struct {
	Control  region.Control
	Feasible bool

	// PowerW is the physical power at the point.
	PowerW float64

	// IrmsA is the physical RMS current, NaN when the squared-RMS
	// polynomial is negative at the point.
	IrmsA float64
}

// New builds a solver for one region at one secondary design point.
func New(design region.Design, zone region.Zone, v2 float64) (*Solver, error) {
	model, ok := design.Set().ModelFor(zone)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s set", ErrUnknownRegion, zone, design.Kind)
	}
	return &Solver{design: design, model: model, m: design.M(v2), v2: v2}, nil
}

// SolveD0 finds the outer shift delta for fixed inner shifts.
func (s *Solver) SolveD0(d1, d2, targetW float64) (float64, error) {
	return s.solve(targetW, func(x float64) region.Control {
		return region.Control{D0: x, D1: d1, D2: d2}
	})
}

// SolveD1 finds the primary inner shift for fixed delta and secondary
// shift.
func (s *Solver) SolveD1(d0, d2, targetW float64) (float64, error) {
	return s.solve(targetW, func(x float64) region.Control {
		return region.Control{D0: d0, D1: x, D2: d2}
	})
}

// SolveD2 finds the secondary inner shift for fixed delta and primary
// shift.
func (s *Solver) SolveD2(d0, d1, targetW float64) (float64, error) {
	return s.solve(targetW, func(x float64) region.Control {
		return region.Control{D0: d0, D1: d1, D2: x}
	})
}

// Evaluate reports the physical values and feasibility at a control
// point, for display alongside a solved coordinate.
func (s *Solver) Evaluate(c region.Control) Solution {
	sol := Solution{
		Control:  c,
		Feasible: s.model.Feasible(c, s.m),
		PowerW:   s.design.ScaleP * s.model.Power(c, s.m),
		IrmsA:    math.NaN(),
	}
	if i2 := s.model.SquaredRMS(c, s.m); i2 >= 0 {
		sol.IrmsA = s.design.ScaleI * math.Sqrt(i2)
	}
	return sol
}

// solve finds the root of ScaleP*p(control(x), m) - targetW on the
// modulation interval: a panel scan brackets the first sign change,
// then Brent iteration closes in.
func (s *Solver) solve(targetW float64, control func(float64) region.Control) (float64, error) {
	f := func(x float64) float64 {
		return s.design.ScaleP*s.model.Power(control(x), s.m) - targetW
	}

	a, b, err := bracket(f)
	if err != nil {
		return 0, err
	}
	root, err := brent(f, a, b)
	if err != nil {
		return 0, err
	}
	if root < intervalLo-convergeTol || root > intervalHi+convergeTol {
		return 0, fmt.Errorf("%w: %g", ErrOutOfRange, root)
	}
	return root, nil
}

// bracket scans bracketPanels sub-intervals for the first sign change.
func bracket(f func(float64) float64) (float64, float64, error) {
	step := (intervalHi - intervalLo) / bracketPanels
	a := intervalLo
	fa := f(a)
	if fa == 0 {
		return a, a, nil
	}
	for i := 1; i <= bracketPanels; i++ {
		b := intervalLo + float64(i)*step
		fb := f(b)
		if fb == 0 || fa*fb < 0 {
			return a, b, nil
		}
		a, fa = b, fb
	}
	return 0, 0, ErrNoBracket
}

// brent is the classic Brent-Dekker iteration: bisection safety with
// inverse quadratic interpolation where it helps.
func brent(f func(float64) float64, a, b float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	var d, e float64
	d = b - a
	e = d

	for i := 0; i < maxIterations; i++ {
		if fb == 0 || math.Abs(b-a) < convergeTol {
			return b, nil
		}

		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*machEps*math.Abs(b) + convergeTol/2
		mid := (c - b) / 2
		if math.Abs(mid) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			sRatio := fb / fa
			var p, q float64
			if a == c {
				// Secant step.
				p = 2 * mid * sRatio
				q = 1 - sRatio
			} else {
				// Inverse quadratic interpolation.
				qr := fa / fc
				r := fb / fc
				p = sRatio * (2*mid*qr*(qr-r) - (b-a)*(r-1))
				q = (qr - 1) * (r - 1) * (sRatio - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*mid*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = mid
				e = d
			}
		} else {
			d = mid
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if mid > 0 {
			b += tol
		} else {
			b -= tol
		}
		fb = f(b)

		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
	}
	return 0, ErrNoConvergence
}
