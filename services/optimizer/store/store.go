// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store holds the candidate table produced by one sweep run.
//
// # Ownership Model
//
// A Table is written once by its constructor and only ever read
// afterwards. There is no mutation API: the selector and the HTTP
// service share one Table across goroutines without locking.
//
// # Iteration Order
//
// New deduplicates and sorts the rows under a defined key, so two
// sweeps with identical inputs yield byte-identical tables and the
// selector's tie-breaking ("first in table order") is a testable
// property rather than an accident of scheduling.
package store

import (
	"sort"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

// Candidate is one feasible (control vector, region, design point)
// evaluation converted to physical units.
type Candidate struct {
	// V2 is the secondary design value in volts; M the scale parameter
	// derived from it.
	V2 float64
	M  float64

	// Control coordinates.
	D0 float64
	D1 float64
	D2 float64

	// Zone identifies the region whose equations produced this row.
	Zone region.Zone

	// PScaled and IrmsScaled are the dimensionless closed-form values;
	// Power and Irms the physical ones (W, A). Irms is always >= 0 and
	// Power within [0, ceiling] by the generator's filter guarantee.
	PScaled    float64
	IrmsScaled float64
	Power      float64
	Irms       float64
}

// Table is the immutable candidate store for one design configuration.
type Table struct {
	design     region.Design
	rows       []Candidate
	partitions map[float64][2]int
	v2s        []float64
}

// dedupKey identifies a candidate up to the quantities derived from it.
// Grid and augmentation passes can emit the same operating point; the
// first occurrence wins, matching the generation order.
type dedupKey struct {
	v2, d1, d2, d0 float64
	zone           region.Zone
}

// New builds a Table: deduplicate on (V2, D1, D2, D0, Zone) keeping the
// first row, sort by (V2, Power, Irms, D0, D1, D2, Zone), and index the
// per-V2 partitions. The input slice is not retained.
func New(design region.Design, rows []Candidate) *Table {
	seen := make(map[dedupKey]struct{}, len(rows))
	deduped := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		k := dedupKey{v2: r.V2, d1: r.D1, d2: r.D2, d0: r.D0, zone: r.Zone}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.V2 != b.V2 {
			return a.V2 < b.V2
		}
		if a.Power != b.Power {
			return a.Power < b.Power
		}
		if a.Irms != b.Irms {
			return a.Irms < b.Irms
		}
		if a.D0 != b.D0 {
			return a.D0 < b.D0
		}
		if a.D1 != b.D1 {
			return a.D1 < b.D1
		}
		if a.D2 != b.D2 {
			return a.D2 < b.D2
		}
		return a.Zone < b.Zone
	})

	t := &Table{
		design:     design,
		rows:       deduped,
		partitions: make(map[float64][2]int),
	}
	start := 0
	for i := 1; i <= len(deduped); i++ {
		if i == len(deduped) || deduped[i].V2 != deduped[start].V2 {
			v2 := deduped[start].V2
			t.partitions[v2] = [2]int{start, i}
			t.v2s = append(t.v2s, v2)
			start = i
		}
	}
	return t
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the full sorted row slice. Callers must treat it as
// read-only.
func (t *Table) Rows() []Candidate {
	return t.rows
}

// Partition returns the contiguous rows for one secondary design value,
// or nil if the table has none. Rows within a partition are sorted by
// (Power, Irms, ...), which the selector's binary searches rely on.
func (t *Table) Partition(v2 float64) []Candidate {
	span, ok := t.partitions[v2]
	if !ok {
		return nil
	}
	return t.rows[span[0]:span[1]]
}

// V2Values returns the distinct secondary design values in ascending
// order.
func (t *Table) V2Values() []float64 {
	return t.v2s
}

// Design returns the design configuration the table was generated for.
func (t *Table) Design() region.Design {
	return t.design
}
