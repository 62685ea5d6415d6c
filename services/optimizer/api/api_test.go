// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/region"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

func writeFixtureCSV(t *testing.T, path string, rows []store.Candidate) {
	t.Helper()
	design, err := region.DeriveDesign(region.Params{
		V1V:     200,
		FsHz:    100_000,
		PMaxW:   3500,
		MStar:   1.3,
		V2MinV:  45,
		V2MaxV:  55,
		V2StepV: 5,
	}, region.KindZone)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, store.New(design, rows).WriteCSV(f))
}

func fixtureRows() []store.Candidate {
	return []store.Candidate{
		{V2: 45, M: 1.3, D0: 0.1, D1: 0.5, D2: 0.3, Zone: region.ZoneI,
			PScaled: 0.08, IrmsScaled: 0.3, Power: 500, Irms: 2.0},
		{V2: 45, M: 1.3, D0: 0.2, D1: 0.7, D2: 0.4, Zone: region.ZoneI,
			PScaled: 0.16, IrmsScaled: 0.5, Power: 1000, Irms: 4.0},
		{V2: 50, M: 1.44, D0: 0.5, D1: 1, D2: 1, Zone: region.ZoneV,
			PScaled: 0.4, IrmsScaled: 0.9, Power: 2500, Irms: 7.0},
	}
}

func testRouter(t *testing.T) (*gin.Engine, *Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "candidates.csv")
	writeFixtureCSV(t, path, fixtureRows())

	svc, err := New(Config{CandidatesPath: path})
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/v1"), svc)
	return router, svc, path
}

func doJSON(t *testing.T, router *gin.Engine, method, url, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(Config{CandidatesPath: "/nonexistent/candidates.csv"})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	router, _, _ := testRouter(t)
	w, body := doJSON(t, router, http.MethodGet, "/v1/dab/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["rows"])
	design := body["design"].(map[string]any)
	assert.Equal(t, "zone", design["formula_set"])
}

func TestCandidates_Filters(t *testing.T) {
	router, _, _ := testRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/v1/dab/candidates?v2=45", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])

	w, body = doJSON(t, router, http.MethodGet, "/v1/dab/candidates?v2=45&power_max=600", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = doJSON(t, router, http.MethodGet, "/v1/dab/candidates?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	// An explicit zero limit returns no rows, not one.
	w, body = doJSON(t, router, http.MethodGet, "/v1/dab/candidates?limit=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["count"])

	w, _ = doJSON(t, router, http.MethodGet, "/v1/dab/candidates?limit=999999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimal(t *testing.T) {
	router, _, _ := testRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/v1/dab/optimal",
		`{"target_w": 501, "v2": 45}`)
	require.Equal(t, http.StatusOK, w.Code)

	points := body["points"].([]any)
	require.Len(t, points, 1)
	pt := points[0].(map[string]any)
	assert.Equal(t, true, pt["found"])
	assert.Equal(t, float64(500), pt["power_w"])
	assert.Equal(t, "I", pt["zone"])

	// No v2: one point per partition.
	w, body = doJSON(t, router, http.MethodPost, "/v1/dab/optimal", `{"target_w": 501}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["points"].([]any), 2)

	// Unattainable target is a no-solution point, not an error.
	w, body = doJSON(t, router, http.MethodPost, "/v1/dab/optimal",
		`{"target_w": 3400, "v2": 45}`)
	require.Equal(t, http.StatusOK, w.Code)
	pt = body["points"].([]any)[0].(map[string]any)
	assert.Equal(t, false, pt["found"])
	assert.Equal(t, "NO_SOLUTION", pt["zone"])
	assert.NotContains(t, pt, "power_w")

	w, _ = doJSON(t, router, http.MethodPost, "/v1/dab/optimal", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSolve(t *testing.T) {
	router, _, _ := testRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/v1/dab/solve",
		`{"zone": "I", "v2": 45, "target_w": 500, "d1": 0.8, "d2": 0.4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d0", body["solved"])
	value := body["value"].(float64)
	assert.Greater(t, value, 0.0)
	assert.Less(t, value, 1.0)
	assert.InDelta(t, 500, body["power_w"].(float64), 1e-3)

	// Zone I power has no d1 dependence: unsolvable, 422.
	w, _ = doJSON(t, router, http.MethodPost, "/v1/dab/solve",
		`{"zone": "I", "v2": 45, "target_w": 500, "d0": 0.1, "d2": 0.4}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Must fix exactly two coordinates.
	w, _ = doJSON(t, router, http.MethodPost, "/v1/dab/solve",
		`{"zone": "I", "v2": 45, "target_w": 500, "d1": 0.8}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown zone name.
	w, _ = doJSON(t, router, http.MethodPost, "/v1/dab/solve",
		`{"zone": "IX", "v2": 45, "target_w": 500, "d1": 0.8, "d2": 0.4}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReload_SwapsStore(t *testing.T) {
	_, svc, path := testRouter(t)
	require.Equal(t, 3, svc.Table().Len())

	writeFixtureCSV(t, path, fixtureRows()[:1])
	require.NoError(t, svc.Reload())
	assert.Equal(t, 1, svc.Table().Len())
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	_, svc, path := testRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Watch(ctx))

	writeFixtureCSV(t, path, fixtureRows()[:2])

	require.Eventually(t, func() bool {
		return svc.Table().Len() == 2
	}, 5*time.Second, 50*time.Millisecond)
}
