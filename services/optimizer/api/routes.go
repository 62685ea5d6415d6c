// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the optimizer endpoints on a router group.
//
// Endpoints:
//
//	GET  /v1/dab/health     - store and design status
//	GET  /v1/dab/candidates - filtered candidate rows
//	POST /v1/dab/optimal    - one target selection
//	POST /v1/dab/solve      - solve one control coordinate
func RegisterRoutes(rg *gin.RouterGroup, s *Service) {
	dab := rg.Group("/dab")
	{
		dab.GET("/health", s.handleHealth)
		dab.GET("/candidates", s.handleCandidates)
		dab.POST("/optimal", s.handleOptimal)
		dab.POST("/solve", s.handleSolve)
	}
}
