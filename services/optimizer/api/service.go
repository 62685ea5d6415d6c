// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package api serves the candidate table to interactive consumers:
// health, filtered candidate queries, single-target selection and point
// solving over HTTP.
//
// The table is loaded from a candidates CSV and swapped atomically, so
// request handlers never see a partially loaded store. A filesystem
// watcher reloads on file change; singleflight collapses concurrent
// reload attempts into one read.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/selector"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
)

// Config holds the service settings.
type Config struct {
	// CandidatesPath is the candidates CSV the store loads from.
	CandidatesPath string

	// Policy is the default selection policy; per-request overrides are
	// applied on top.
	Policy selector.Policy
}

// Service owns the shared candidate store.
//
// Thread Safety: Safe for concurrent use. Handlers read a snapshot
// pointer; reloads swap it atomically.
type Service struct {
	cfg    Config
	table  atomic.Pointer[store.Table]
	reload singleflight.Group
}

// New loads the store and returns a ready service.
func New(cfg Config) (*Service, error) {
	if cfg.CandidatesPath == "" {
		return nil, fmt.Errorf("api: candidates path is required")
	}
	if cfg.Policy == (selector.Policy{}) {
		cfg.Policy = selector.DefaultPolicy()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the current store snapshot.
func (s *Service) Table() *store.Table {
	return s.table.Load()
}

// Reload re-reads the candidates CSV and swaps the store. Concurrent
// calls share one read.
func (s *Service) Reload() error {
	_, err, _ := s.reload.Do("reload", func() (any, error) {
		f, err := os.Open(s.cfg.CandidatesPath)
		if err != nil {
			return nil, fmt.Errorf("open candidates: %w", err)
		}
		defer f.Close()

		table, err := store.ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("read candidates: %w", err)
		}
		s.table.Store(table)
		slog.Info("candidate store loaded",
			slog.String("path", s.cfg.CandidatesPath),
			slog.Int("rows", table.Len()),
		)
		return nil, nil
	})
	return err
}

// Watch reloads the store whenever the candidates file changes, until
// the context is cancelled. A failed reload keeps the previous
// snapshot and logs the error.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors and atomic writers replace the file,
	// which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(s.cfg.CandidatesPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.cfg.CandidatesPath, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.cfg.CandidatesPath)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					slog.Error("candidate store reload failed",
						slog.String("path", target),
						slog.String("error", err.Error()),
					)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("candidate watcher error", slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}
