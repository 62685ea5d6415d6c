// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/solver"
)

// candidateJSON is the wire shape of one table row.
type candidateJSON struct {
	V2         float64 `json:"v2_v"`
	M          float64 `json:"m"`
	D0         float64 `json:"d0_delta"`
	D1         float64 `json:"d1"`
	D2         float64 `json:"d2"`
	Zone       string  `json:"zone"`
	PScaled    float64 `json:"p_scaled"`
	IrmsScaled float64 `json:"irms_scaled"`
	PowerW     float64 `json:"power_w"`
	IrmsA      float64 `json:"irms_a"`
}

// optimalJSON is the wire shape of one selected point. NaN-valued
// fields of a no-solution row are omitted rather than emitted as
// invalid JSON.
type optimalJSON struct {
	TargetW     float64  `json:"target_w"`
	V2          float64  `json:"v2_v"`
	D0          *float64 `json:"d0_delta,omitempty"`
	D1          *float64 `json:"d1,omitempty"`
	D2          *float64 `json:"d2,omitempty"`
	Zone        string   `json:"zone"`
	IrmsA       *float64 `json:"irms_a,omitempty"`
	PowerW      *float64 `json:"power_w,omitempty"`
	PowerErrorW *float64 `json:"power_error_w,omitempty"`
	M           *float64 `json:"m,omitempty"`
	PScaled     *float64 `json:"p_scaled,omitempty"`
	N           float64  `json:"n"`
	LHenry      float64  `json:"l_h"`
	Found       bool     `json:"found"`
}

func toOptimalJSON(p selector.OptimalPoint) optimalJSON {
	return optimalJSON{
		TargetW:     p.TargetW,
		V2:          p.V2,
		D0:          finite(p.D0),
		D1:          finite(p.D1),
		D2:          finite(p.D2),
		Zone:        p.Zone.String(),
		IrmsA:       finite(p.IrmsA),
		PowerW:      finite(p.PowerW),
		PowerErrorW: finite(p.PowerErrorW),
		M:           finite(p.M),
		PScaled:     finite(p.PScaled),
		N:           p.N,
		LHenry:      p.LHenry,
		Found:       p.Found,
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// handleHealth reports store and design status.
func (s *Service) handleHealth(c *gin.Context) {
	t := s.Table()
	d := t.Design()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rows":   t.Len(),
		"design": gin.H{
			"formula_set": d.Kind.String(),
			"v1_v":        d.V1V,
			"fs_hz":       d.FsHz,
			"p_max_w":     d.PMaxW,
			"n":           d.N,
			"l_h":         d.L,
			"v2_min_v":    d.V2MinV,
			"v2_max_v":    d.V2MaxV,
		},
	})
}

type candidatesQuery struct {
	V2       *float64 `form:"v2"`
	PowerMin *float64 `form:"power_min"`
	PowerMax *float64 `form:"power_max"`
	Limit    int      `form:"limit,default=100" binding:"gte=0,lte=10000"`
}

// handleCandidates returns filtered table rows.
func (s *Service) handleCandidates(c *gin.Context) {
	var q candidatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := s.Table()
	rows := t.Rows()
	if q.V2 != nil {
		rows = t.Partition(*q.V2)
	}

	out := make([]candidateJSON, 0, q.Limit)
	for _, r := range rows {
		if len(out) >= q.Limit {
			break
		}
		if q.PowerMin != nil && r.Power < *q.PowerMin {
			continue
		}
		if q.PowerMax != nil && r.Power > *q.PowerMax {
			continue
		}
		out = append(out, candidateJSON{
			V2:         r.V2,
			M:          r.M,
			D0:         r.D0,
			D1:         r.D1,
			D2:         r.D2,
			Zone:       r.Zone.String(),
			PScaled:    r.PScaled,
			IrmsScaled: r.IrmsScaled,
			PowerW:     r.Power,
			IrmsA:      r.Irms,
		})
	}
	c.JSON(http.StatusOK, gin.H{"candidates": out, "count": len(out)})
}

type optimalRequest struct {
	TargetW          *float64 `json:"target_w" binding:"required,gte=0"`
	V2               *float64 `json:"v2"`
	ToleranceW       *float64 `json:"tolerance_w" binding:"omitempty,gt=0"`
	MaxNearestErrorW *float64 `json:"max_nearest_error_w"`
}

// handleOptimal runs one target selection, for one or all secondary
// design points.
func (s *Service) handleOptimal(c *gin.Context) {
	var req optimalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := s.cfg.Policy
	if req.ToleranceW != nil {
		policy.ToleranceW = *req.ToleranceW
	}
	if req.MaxNearestErrorW != nil {
		policy.MaxNearestErrorW = *req.MaxNearestErrorW
	}

	t := s.Table()
	v2s := t.V2Values()
	if req.V2 != nil {
		v2s = []float64{*req.V2}
	}

	points := make([]optimalJSON, 0, len(v2s))
	for _, v2 := range v2s {
		points = append(points, toOptimalJSON(policy.Select(t, v2, *req.TargetW)))
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

type solveRequest struct {
	Zone    string   `json:"zone" binding:"required"`
	V2      float64  `json:"v2" binding:"required,gt=0"`
	TargetW float64  `json:"target_w" binding:"required,gt=0"`
	D0      *float64 `json:"d0" binding:"omitempty,gt=0,lt=1"`
	D1      *float64 `json:"d1" binding:"omitempty,gt=0,lte=1"`
	D2      *float64 `json:"d2" binding:"omitempty,gt=0,lte=1"`
}

// handleSolve solves the one unset control coordinate for a target
// power. Exactly two of d0/d1/d2 must be supplied.
func (s *Service) handleSolve(c *gin.Context) {
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := 0
	for _, f := range []*float64{req.D0, req.D1, req.D2} {
		if f != nil {
			set++
		}
	}
	if set != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly two of d0, d1, d2 must be set"})
		return
	}

	zone, err := region.ZoneFromString(req.Zone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sv, err := solver.New(s.Table().Design(), zone, req.V2)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		solvedName string
		ctrl       region.Control
		root       float64
	)
	switch {
	case req.D0 == nil:
		root, err = sv.SolveD0(*req.D1, *req.D2, req.TargetW)
		ctrl = region.Control{D0: root, D1: *req.D1, D2: *req.D2}
		solvedName = "d0"
	case req.D1 == nil:
		root, err = sv.SolveD1(*req.D0, *req.D2, req.TargetW)
		ctrl = region.Control{D0: *req.D0, D1: root, D2: *req.D2}
		solvedName = "d1"
	default:
		root, err = sv.SolveD2(*req.D0, *req.D1, req.TargetW)
		ctrl = region.Control{D0: *req.D0, D1: *req.D1, D2: root}
		solvedName = "d2"
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, solver.ErrNoBracket) ||
			errors.Is(err, solver.ErrNoConvergence) ||
			errors.Is(err, solver.ErrOutOfRange) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	sol := sv.Evaluate(ctrl)
	c.JSON(http.StatusOK, gin.H{
		"solved":   solvedName,
		"value":    root,
		"d0_delta": ctrl.D0,
		"d1":       ctrl.D1,
		"d2":       ctrl.D2,
		"zone":     zone.String(),
		"feasible": sol.Feasible,
		"power_w":  sol.PowerW,
		"irms_a":   finite(sol.IrmsA),
	})
}
