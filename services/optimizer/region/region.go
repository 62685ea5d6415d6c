// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package region holds the closed-form physics for the operating regions
// of a dual-active-bridge converter under triple-phase-shift control.
//
// Each operating region supplies three pure functions of the control
// vector and the scale parameter m (the reflected voltage ratio):
//
//   - a feasibility predicate (a conjunction of strict inequalities),
//   - a scaled power closed form p(control, m),
//   - a scaled squared-RMS closed form i2(control, m).
//
// Two validated formula sets ship: the zone set (Das & Basu 2021,
// default) and the legacy set (Tong et al. 2016). Both factor through
// the same scaled contract; physical units are recovered by the caller
// via Design.ScaleP and Design.ScaleI.
//
// # Purity
//
// Region functions never allocate, never log, and never raise errors.
// Repeated evaluation at the same point is bit-stable. All range and
// sign validation happens in the sweep generator: power is not
// guaranteed positive outside a region's feasible cone, and squared RMS
// may legitimately evaluate negative near degenerate scale ratios
// (m close to 1 cancels stabilizing terms in the legacy polynomials).
//
// # Exclusivity
//
// The predicates are constructed to be mutually exclusive, but callers
// must not rely on it: a point may be feasible in zero, one, or (at
// region borders, through floating-point behavior) more than one
// region, and every acceptance stands on its own.
package region

import "fmt"

// Control is the normalized TPS control vector. D0 is the outer phase
// shift (delta), D1 and D2 the primary and secondary inner shifts.
// Each coordinate lives in a closed interval inside (0, 1), commonly
// [0.01, 0.99], to avoid degenerate boundary behavior.
type Control struct {
	D0 float64
	D1 float64
	D2 float64
}

// Zone names an operating region. ZoneNone is the sentinel used by the
// selector for NO_SOLUTION rows; it is never part of a formula set.
type Zone int

const (
	ZoneNone Zone = iota

	// Zone set (Das & Basu 2021). Zones III and IV of the paper have no
	// validated equations and are not modeled.
	ZoneI
	ZoneII
	ZoneV

	// Legacy set (Tong et al. 2016). Modes 3, 4 and 6 of the paper's
	// table have no validated equations and are not modeled.
	ModeTPS1
	ModeTPS2
	ModeTPS5
)

// String returns the export identifier used in CSV artifacts.
func (z Zone) String() string {
	switch z {
	case ZoneI:
		return "I"
	case ZoneII:
		return "II"
	case ZoneV:
		return "V"
	case ModeTPS1:
		return "M1"
	case ModeTPS2:
		return "M2"
	case ModeTPS5:
		return "M5"
	default:
		return "NO_SOLUTION"
	}
}

// ZoneFromString maps an export identifier back to a Zone.
func ZoneFromString(s string) (Zone, error) {
	switch s {
	case "I":
		return ZoneI, nil
	case "II":
		return ZoneII, nil
	case "V":
		return ZoneV, nil
	case "M1":
		return ModeTPS1, nil
	case "M2":
		return ModeTPS2, nil
	case "M5":
		return ModeTPS5, nil
	case "NO_SOLUTION":
		return ZoneNone, nil
	default:
		return ZoneNone, fmt.Errorf("%w: %q", ErrUnknownZone, s)
	}
}

// Model bundles the pure evaluation functions for one region.
type Model struct {
	Zone       Zone
	Feasible   func(c Control, m float64) bool
	Power      func(c Control, m float64) float64
	SquaredRMS func(c Control, m float64) float64
}

// Set is a fixed, small collection of region models evaluated together
// during a sweep.
type Set []Model

// ModelFor returns the model for the given zone, if the set carries it.
func (s Set) ModelFor(z Zone) (Model, bool) {
	for _, m := range s {
		if m.Zone == z {
			return m, true
		}
	}
	return Model{}, false
}

// Kind selects a formula set. The choice is a config value, not a
// build flag: the engine consumes whichever Set the Kind yields.
type Kind int

const (
	// KindZone is the Das & Basu 2021 zone formulation (default).
	KindZone Kind = iota

	// KindLegacy is the Tong et al. 2016 mode formulation.
	KindLegacy
)

// String returns the config name for the kind ("zone" or "legacy").
func (k Kind) String() string {
	if k == KindLegacy {
		return "legacy"
	}
	return "zone"
}

// KindByName parses a config string into a Kind.
func KindByName(name string) (Kind, error) {
	switch name {
	case "zone", "":
		return KindZone, nil
	case "legacy":
		return KindLegacy, nil
	default:
		return KindZone, fmt.Errorf("%w: %q", ErrUnknownFormulaSet, name)
	}
}

// Set returns the formula set for the kind.
func (k Kind) Set() Set {
	if k == KindLegacy {
		return LegacySet()
	}
	return ZoneSet()
}
