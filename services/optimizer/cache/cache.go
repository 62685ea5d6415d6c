// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache persists sweep results keyed by a fingerprint of the
// configuration that produced them, so repeated runs with identical
// inputs skip the grid entirely.
//
// The cache is strictly best-effort: corrupt entries, expired entries
// and storage failures on read all degrade to a miss. Only Put reports
// storage errors, and callers are free to ignore those too.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianDAB/services/optimizer/store"
	"github.com/AleutianAI/AleutianDAB/services/optimizer/sweep"
)

// schemaVersion is folded into every fingerprint. Bump it when the
// candidate schema or the generation semantics change, invalidating all
// prior entries at once.
const schemaVersion = 1

// DefaultTTL is how long an entry stays valid. Sweeps are deterministic,
// so the TTL only bounds disk growth.
const DefaultTTL = 30 * 24 * time.Hour

// Config holds cache storage settings.
type Config struct {
	// Dir is the badger directory. Ignored when InMemory is true.
	Dir string

	// InMemory keeps the cache in RAM, for tests.
	InMemory bool

	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
}

// Cache is a badger-backed sweep result store.
//
// Thread Safety: Safe for concurrent use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates the cache.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache: dir is required for persistent cache")
		}
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Fingerprint derives the cache key for a sweep configuration: a
// sha256 over every input that changes the output table. Worker count
// is deliberately excluded; it affects scheduling, not results.
//
// Pass the generator's effective configuration (Generator.Config), not
// the pre-default value, so that a zero field and its explicit default
// key the same entry.
func Fingerprint(cfg sweep.Config) string {
	d := cfg.Design
	set := cfg.Set
	if set == nil {
		set = d.Set()
	}
	zones := make([]string, len(set))
	for i, m := range set {
		zones[i] = m.Zone.String()
	}
	canonical := fmt.Sprintf(
		"v%d|kind=%s|set=%s|v1=%g|fs=%g|pmax=%g|mstar=%g|v2=[%g,%g,%g]|l=%g|n=%g|step=%g|lo=%g|hi=%g|ceil=%g|aug=%t",
		schemaVersion, d.Kind, strings.Join(zones, ","),
		d.V1V, d.FsHz, d.PMaxW, d.MStar,
		d.V2MinV, d.V2MaxV, d.V2StepV,
		d.L, d.N,
		cfg.Step, cfg.Lo, cfg.Hi, cfg.PowerCeilingW, cfg.Augment,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Get looks a fingerprint up.
//
// Outputs:
//   - *store.Table: The cached table, nil on miss.
//   - bool: Whether the entry was found and parsed.
//   - error: Only unexpected storage failures; a corrupt or expired
//     entry is a miss, not an error.
func (c *Cache) Get(fp string) (*store.Table, bool, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fp))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	table, err := store.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		slog.Warn("discarding corrupt cache entry",
			slog.String("fingerprint", fp),
			slog.String("error", err.Error()),
		)
		return nil, false, nil
	}
	return table, true, nil
}

// Put stores a table under a fingerprint with the cache TTL.
func (c *Cache) Put(fp string, table *store.Table) error {
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(fp), buf.Bytes()).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
