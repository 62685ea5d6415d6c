// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import "errors"

// Sentinel errors for region and design operations.
var (
	// ErrUnknownZone is returned when a zone identifier cannot be parsed.
	ErrUnknownZone = errors.New("unknown zone identifier")

	// ErrUnknownFormulaSet is returned when a formula-set name is not
	// "zone" or "legacy".
	ErrUnknownFormulaSet = errors.New("unknown formula set")

	// ErrInvalidDesign is returned by DeriveDesign when the physical
	// parameters cannot yield a usable design. This is a fatal
	// configuration error: proceeding would silently produce an empty
	// candidate table and mask a setup mistake.
	ErrInvalidDesign = errors.New("invalid design configuration")
)
