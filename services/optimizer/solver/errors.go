// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solver

import "errors"

var (
	// ErrUnknownRegion indicates the requested region is not in the
	// design's formula set.
	ErrUnknownRegion = errors.New("solver: unknown region")

	// ErrNoBracket indicates the power residual does not change sign
	// anywhere on the search interval: the target is unreachable along
	// this coordinate.
	ErrNoBracket = errors.New("solver: no sign change on interval")

	// ErrNoConvergence indicates the iteration budget ran out before
	// the tolerance was met.
	ErrNoConvergence = errors.New("solver: iteration did not converge")

	// ErrOutOfRange indicates the root escaped the modulation interval.
	ErrOutOfRange = errors.New("solver: root outside interval")
)
