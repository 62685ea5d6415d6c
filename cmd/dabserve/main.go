// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command dabserve starts the AleutianDAB optimizer HTTP server.
//
// It serves candidate queries, target selection and point solving over a
// pre-computed candidates CSV, reloading the store when the file changes.
//
// # Environment Variables
//
//   - DAB_PORT: HTTP server port (default: 12210)
//   - DAB_CANDIDATES_CSV: candidates CSV path (default: data/zone_candidates.csv)
//   - DAB_WATCH: reload the store on file change - true/false (default: true)
//   - DAB_TOLERANCE_W: selection tolerance band in watts (default: 2)
//   - DAB_MAX_NEAREST_ERROR_W: nearest-fallback ceiling in watts (default: 100)
//   - DAB_METRIC_EXPORTER: prometheus, stdout or none (default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector for traces (optional)
//
// # Usage
//
//	# Build
//	go build -o dabserve ./cmd/dabserve
//
//	# Run
//	DAB_CANDIDATES_CSV=data/zone_candidates.csv ./dabserve
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianDAB/pkg/logging"
	"github.com/AleutianAI/AleutianDAB/pkg/ux"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/api"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/telemetry"
)

const version = "1.0.0"

func main() {
	logger := logging.New(logging.Config{
		Service: "dabserve",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	port := getEnvInt("DAB_PORT", 12210)
	candidatesPath := getEnvString("DAB_CANDIDATES_CSV", "data/zone_candidates.csv")
	watch := getEnvBool("DAB_WATCH", true)

	policy := selector.DefaultPolicy()
	policy.ToleranceW = getEnvFloat("DAB_TOLERANCE_W", policy.ToleranceW)
	policy.MaxNearestErrorW = getEnvFloat("DAB_MAX_NEAREST_ERROR_W", policy.MaxNearestErrorW)

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceName = "dabserve"
	telCfg.ServiceVersion = version
	if v := os.Getenv("DAB_METRIC_EXPORTER"); v != "" {
		telCfg.MetricExporter = v
	} else {
		telCfg.MetricExporter = "prometheus"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err.Error())
		}
	}()

	svc, err := api.New(api.Config{
		CandidatesPath: candidatesPath,
		Policy:         policy,
	})
	if err != nil {
		log.Fatalf("Failed to load candidate store: %v", err)
	}
	if watch {
		if err := svc.Watch(ctx); err != nil {
			log.Fatalf("Failed to watch candidates file: %v", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(otelgin.Middleware("dabserve"))
	router.Use(gin.Recovery())
	api.RegisterRoutes(router.Group("/v1"), svc)
	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	ux.Banner("dabserve", version)
	slog.Info("Starting dabserve",
		"port", port,
		"candidates", candidatesPath,
		"rows", svc.Table().Len(),
		"watch", watch,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err.Error())
		}
	}
	slog.Info("dabserve stopped")
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
