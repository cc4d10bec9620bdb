// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pdfindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tikcccc/EPD-Tender/internal/observability"
)

// Engine builds a Line index from a PDF file. Implemented by the
// ledongthuc/pdf + pdfcpu binding in engine.go; kept as an interface so the
// cache and the locator core never depend on a concrete PDF library
// directly. The highlight resolver's page search (spec.md §4.5) operates
// on the Lines this produces rather than a second native search call —
// everything the engine contract needs (per-span rectangles) is already
// captured per line.
type Engine interface {
	BuildIndex(path string) ([]Line, error)
}

type cacheEntry struct {
	mtimeNS int64
	lines   []Line
}

// Cache is the process-wide path -> index cache described in spec.md §4.1.
// Access to the map is mutex-guarded; rebuilding a stale entry happens outside
// the lock so concurrent lookups for distinct files never serialise on it.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	engine   Engine
	observer *observability.StandardObserver
}

// NewCache creates a cache backed by the given Engine.
func NewCache(engine Engine) *Cache {
	return &Cache{
		entries:  make(map[string]cacheEntry),
		engine:   engine,
		observer: observability.FromEnv(),
	}
}

// Get returns the index for path, rebuilding it if the file is new or its
// modification time differs from the one recorded when the entry was built. Concurrent
// rebuilds of the same path race harmlessly; the last writer wins the map slot.
func (c *Cache) Get(path string) ([]Line, error) {
	canonical, mtimeNS, err := statCanonical(path)
	if err != nil {
		return nil, fmt.Errorf("stat pdf %q: %w", path, err)
	}

	c.mu.Lock()
	cached, ok := c.entries[canonical]
	c.mu.Unlock()
	if ok && cached.mtimeNS == mtimeNS {
		return cached.lines, nil
	}

	done := c.observer.StartTiming(observability.ComponentIndex, "build_index", path)
	lines, err := c.engine.BuildIndex(path)
	done(err == nil, map[string]interface{}{"line_count": len(lines)})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[canonical] = cacheEntry{mtimeNS: mtimeNS, lines: lines}
	c.mu.Unlock()

	return lines, nil
}

// Invalidate drops the cached entry for path, if any. Not required by the
// core contract but useful for tests and for an operator forcing a rebuild.
func (c *Cache) Invalidate(path string) {
	canonical, _, err := statCanonical(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, canonical)
	c.mu.Unlock()
}

func statCanonical(path string) (string, int64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", 0, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Fall back to the absolute path: the file may not exist yet under
		// symlink resolution rules on some platforms, but os.Stat below will
		// still fail informatively if it's genuinely missing.
		resolved = abs
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, err
	}

	return resolved, info.ModTime().UnixNano(), nil
}
