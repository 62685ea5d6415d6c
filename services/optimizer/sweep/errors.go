// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sweep

import "errors"

var (
	// ErrInvalidConfig indicates sweep parameters that can never produce
	// a valid run (bad step, bounds or ceiling).
	ErrInvalidConfig = errors.New("sweep: invalid configuration")

	// ErrInfeasibleDesign indicates that no grid point is feasible in any
	// region at any design point: the scale parameter sits outside every
	// feasibility cone and a full sweep would return an empty table.
	ErrInfeasibleDesign = errors.New("sweep: no feasible region for design")

	// ErrWorkerPanic wraps a panic recovered in a sweep worker.
	ErrWorkerPanic = errors.New("sweep: worker panic")
)
