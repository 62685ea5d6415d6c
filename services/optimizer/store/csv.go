// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
)

// csvColumns is the export schema, fixed for downstream consumers
// (model trainers, dashboards) that key on column names.
var csvColumns = []string{
	"V2_V", "m", "n", "L_H",
	"D0_delta", "D1", "D2", "Zone",
	"p_scaled", "Irms_scaled", "Power_W", "Irms_A",
}

// WriteCSV writes the table in the row-oriented export schema. The
// first line is a '#' comment carrying the design constants so ReadCSV
// can reconstruct the Table without a separate config file.
func (t *Table) WriteCSV(w io.Writer) error {
	d := t.design
	_, err := fmt.Fprintf(w, "# design kind=%s v1=%s fs=%s pmax=%s mstar=%s v2min=%s v2max=%s v2step=%s l=%s\n",
		d.Kind,
		ff(d.V1V), ff(d.FsHz), ff(d.PMaxW), ff(d.MStar),
		ff(d.V2MinV), ff(d.V2MaxV), ff(d.V2StepV), ff(d.L))
	if err != nil {
		return fmt.Errorf("write design header: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(csvColumns))
	for _, r := range t.rows {
		rec[0] = ff(r.V2)
		rec[1] = ff(r.M)
		rec[2] = ff(t.design.N)
		rec[3] = ff(t.design.L)
		rec[4] = ff(r.D0)
		rec[5] = ff(r.D1)
		rec[6] = ff(r.D2)
		rec[7] = r.Zone.String()
		rec[8] = ff(r.PScaled)
		rec[9] = ff(r.IrmsScaled)
		rec[10] = ff(r.Power)
		rec[11] = ff(r.Irms)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reconstructs a Table from a WriteCSV artifact. Rows are
// re-deduplicated, re-sorted and re-indexed, so a hand-edited file
// still yields a well-formed table. The design constants come from the
// header comment; without one the table carries a best-effort design
// built from the per-row n and L columns.
func ReadCSV(r io.Reader) (*Table, error) {
	br := newCommentReader(r)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(csvColumns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	for i, col := range csvColumns {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, header[i], col)
		}
	}

	var rows []Candidate
	var firstN, firstL float64
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}
		c, n, l, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}
		if len(rows) == 0 {
			firstN, firstL = n, l
		}
		rows = append(rows, c)
	}

	design, ok := parseDesignComment(br.comment)
	if !ok {
		design = region.Design{N: firstN, L: firstL}
	}
	return New(design, rows), nil
}

func parseRow(rec []string) (Candidate, float64, float64, error) {
	var c Candidate
	var n, l float64
	fields := []struct {
		dst *float64
		idx int
	}{
		{&c.V2, 0}, {&c.M, 1}, {&n, 2}, {&l, 3},
		{&c.D0, 4}, {&c.D1, 5}, {&c.D2, 6},
		{&c.PScaled, 8}, {&c.IrmsScaled, 9}, {&c.Power, 10}, {&c.Irms, 11},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(rec[f.idx], 64)
		if err != nil {
			return Candidate{}, 0, 0, fmt.Errorf("column %s: %v", csvColumns[f.idx], err)
		}
		*f.dst = v
	}
	zone, err := region.ZoneFromString(rec[7])
	if err != nil {
		return Candidate{}, 0, 0, err
	}
	c.Zone = zone
	return c, n, l, nil
}

// parseDesignComment rebuilds the Design from the "# design ..." line.
func parseDesignComment(comment string) (region.Design, bool) {
	comment = strings.TrimSpace(strings.TrimPrefix(comment, "#"))
	if !strings.HasPrefix(comment, "design ") {
		return region.Design{}, false
	}

	var params region.Params
	kind := region.KindZone
	for _, tok := range strings.Fields(strings.TrimPrefix(comment, "design ")) {
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		if key == "kind" {
			k, err := region.KindByName(val)
			if err != nil {
				return region.Design{}, false
			}
			kind = k
			continue
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return region.Design{}, false
		}
		switch key {
		case "v1":
			params.V1V = f
		case "fs":
			params.FsHz = f
		case "pmax":
			params.PMaxW = f
		case "mstar":
			params.MStar = f
		case "v2min":
			params.V2MinV = f
		case "v2max":
			params.V2MaxV = f
		case "v2step":
			params.V2StepV = f
		case "l":
			params.LHenry = f
		}
	}

	design, err := region.DeriveDesign(params, kind)
	if err != nil {
		return region.Design{}, false
	}
	return design, true
}

// ff formats a float with full round-trip precision.
func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// commentReader captures a leading '#' comment line and hands the rest
// of the stream through unchanged.
type commentReader struct {
	r       io.Reader
	comment string
	buf     []byte
	started bool
}

func newCommentReader(r io.Reader) *commentReader {
	return &commentReader{r: r}
}

func (c *commentReader) Read(p []byte) (int, error) {
	if !c.started {
		c.started = true
		one := make([]byte, 1)
		first := true
		isComment := false
		for {
			n, err := c.r.Read(one)
			if n > 0 {
				if first {
					isComment = one[0] == '#'
					first = false
				}
				if isComment {
					if one[0] == '\n' {
						break
					}
					c.comment += string(one[0])
				} else {
					c.buf = append(c.buf, one[0])
					break
				}
			}
			if err != nil {
				break
			}
		}
	}
	if len(c.buf) > 0 {
		n := copy(p, c.buf)
		c.buf = c.buf[n:]
		return n, nil
	}
	return c.r.Read(p)
}
