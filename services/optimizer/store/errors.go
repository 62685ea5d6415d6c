// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import "errors"

var (
	// ErrBadHeader indicates a CSV file whose header row does not match
	// the export schema.
	ErrBadHeader = errors.New("store: bad CSV header")

	// ErrBadRow indicates a CSV data row that failed to parse.
	ErrBadRow = errors.New("store: bad CSV row")
)
