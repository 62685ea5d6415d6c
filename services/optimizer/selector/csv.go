// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// optimalColumns is the export schema for the optimal-point table.
var optimalColumns = []string{
	"Power_Target_W", "V2_V",
	"D0_delta", "D1", "D2", "Zone",
	"Irms_A", "Power_Actual_W", "Power_Error_W",
	"m", "p_scaled", "n", "L_H",
}

// WriteCSV writes the selected points in the export schema. NaN fields
// (no-solution rows) become empty cells; the Zone column carries the
// NO_SOLUTION marker.
func WriteCSV(w io.Writer, points []OptimalPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(optimalColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(optimalColumns))
	for _, p := range points {
		rec[0] = cell(p.TargetW)
		rec[1] = cell(p.V2)
		rec[2] = cell(p.D0)
		rec[3] = cell(p.D1)
		rec[4] = cell(p.D2)
		rec[5] = p.Zone.String()
		rec[6] = cell(p.IrmsA)
		rec[7] = cell(p.PowerW)
		rec[8] = cell(p.PowerErrorW)
		rec[9] = cell(p.M)
		rec[10] = cell(p.PScaled)
		rec[11] = cell(p.N)
		rec[12] = cell(p.LHenry)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
