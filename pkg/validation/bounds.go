// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides semantic checks for numeric configuration
// values, beyond what struct tags can express.
package validation

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Positive returns an error unless v is a finite value greater than zero.
func Positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %g", name, v)
	}
	return nil
}

// NonNegative returns an error unless v is a finite value of at least zero.
func NonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %g", name, v)
	}
	return nil
}

// Fraction returns an error unless v lies in the open interval (0, 1).
func Fraction(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return fmt.Errorf("%s must lie in (0, 1), got %g", name, v)
	}
	return nil
}

// OrderedRange returns an error unless lo <= hi.
func OrderedRange(loName string, lo float64, hiName string, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return fmt.Errorf("%s..%s must be finite, got %g..%g", loName, hiName, lo, hi)
	}
	if lo > hi {
		return fmt.Errorf("%s (%g) must not exceed %s (%g)", loName, lo, hiName, hi)
	}
	return nil
}

// StepFits returns an error unless step is positive and no wider than
// the [lo, hi] interval it subdivides.
func StepFits(name string, step, lo, hi float64) error {
	if err := Positive(name, step); err != nil {
		return err
	}
	if lo < hi && step > hi-lo {
		return fmt.Errorf("%s (%g) is wider than the range %g..%g", name, step, lo, hi)
	}
	return nil
}

// CSVPath returns an error unless path is a non-empty filename with a
// .csv extension.
func CSVPath(name, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return fmt.Errorf("%s must end in .csv, got %q", name, path)
	}
	return nil
}
