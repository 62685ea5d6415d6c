// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

func TestWriteCSV(t *testing.T) {
	nan := math.NaN()
	points := []OptimalPoint{
		{
			TargetW: 500, V2: 50,
			D0: 0.2, D1: 0.6, D2: 0.45, Zone: region.ZoneI,
			IrmsA: 2.0, PowerW: 500.5, PowerErrorW: 0.5,
			M: 1.3, PScaled: 0.0793, N: 5.78, LHenry: 1.6e-5,
			Found: true,
		},
		{
			TargetW: 900, V2: 50,
			D0: nan, D1: nan, D2: nan, Zone: region.ZoneNone,
			IrmsA: nan, PowerW: nan, PowerErrorW: 200,
			M: nan, PScaled: nan, N: 5.78, LHenry: 1.6e-5,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, points))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Power_Target_W", "V2_V", "D0_delta", "D1", "D2", "Zone",
		"Irms_A", "Power_Actual_W", "Power_Error_W", "m", "p_scaled", "n", "L_H",
	}, records[0])

	assert.Equal(t, "500", records[1][0])
	assert.Equal(t, "I", records[1][5])
	assert.Equal(t, "500.5", records[1][7])

	// No-solution rows: marker in Zone, empty physics cells, error and
	// design constants kept.
	assert.Equal(t, "NO_SOLUTION", records[2][5])
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "200", records[2][8])
	assert.Equal(t, "5.78", records[2][11])
}
