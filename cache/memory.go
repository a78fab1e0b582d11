// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides external key-value stores consumed by the
// caching source decorator: an in-process TTL map and a BadgerDB-backed
// persistent store.
//
// The caches are collaborators of the resolution core, not part of it;
// both satisfy the resolve.Cache interface.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/AleutianAI/cascade/resolve"
)

// Memory is an in-process TTL cache.
//
// Expired entries are dropped lazily on read and swept opportunistically
// on write. Values are held as-is without serialization, so arbitrary
// Go values round-trip unchanged.
//
// Thread Safety: Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value for the key, dropping it if expired.
func (m *Memory) Get(ctx context.Context, key string) (any, bool, error) {
	start := time.Now()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && entry.expired(start) {
		m.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, still := m.entries[key]; still && cur.expired(start) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		ok = false
	}

	if ok {
		recordCacheHit(ctx, "memory")
	} else {
		recordCacheMiss(ctx, "memory")
	}
	recordCacheGetLatency(ctx, "memory", time.Since(start), ok)

	if !ok {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value with a TTL. A non-positive TTL stores the value
// without expiry.
func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	recordCacheWrite(ctx, "memory")
	return nil
}

// Delete removes a key. Removing an absent key is a no-op.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Flush removes all entries.
func (m *Memory) Flush() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ensure Memory implements resolve.Cache.
var _ resolve.Cache = (*Memory)(nil)
