// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"context"
	"sort"
	"sync"
)

// sourceEntry pairs a source with its priority and insertion sequence.
// The sequence keeps sorting stable for equal priorities.
type sourceEntry struct {
	source   Source
	priority int
	seq      int
}

// Resolver owns an ordered set of (source, priority) pairs and a list
// of transformers, and implements the cascade algorithm.
//
// Description:
//
//	Sources are queried ascending by priority (lower = earlier), with
//	ties broken by insertion order. The sort is performed lazily on the
//	first resolution or source listing after a mutation; adding a
//	source invalidates the cached order.
//
// Thread Safety:
//
//	The source and transformer lists are guarded by an RWMutex, so
//	concurrent Resolve calls are safe. Mutation is expected to happen
//	before or between resolutions (single-writer); the lock exists so
//	a stray concurrent AddSource cannot corrupt the list.
type Resolver struct {
	name string

	mu           sync.RWMutex
	entries      []sourceEntry
	transformers []Transformer
	sorted       bool
	nextSeq      int
}

// New creates an empty resolver.
//
// Inputs:
//
//	name - Stable resolver identity. Must not be empty.
//
// Outputs:
//
//	*Resolver - The resolver, with no sources registered.
//	error - Non-nil if name is empty.
func New(name string) (*Resolver, error) {
	if name == "" {
		return nil, ErrEmptyResolverName
	}
	return &Resolver{name: name}, nil
}

// Name returns the resolver's stable identity.
func (r *Resolver) Name() string { return r.name }

// AddSource registers a source at the given priority.
//
// Description:
//
//	Lower priority values are queried earlier. Sources added with equal
//	priority are queried in the order they were added. Adding a source
//	invalidates the cached sort order.
//
// Outputs:
//
//	error - ErrNilSource if src is nil.
func (r *Resolver) AddSource(src Source, priority int) error {
	if src == nil {
		return ErrNilSource
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, sourceEntry{source: src, priority: priority, seq: r.nextSeq})
	r.nextSeq++
	r.sorted = false
	return nil
}

// AddTransformer appends a transformer to the chain.
func (r *Resolver) AddTransformer(t Transformer) error {
	if t == nil {
		return ErrNilTransformer
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transformers = append(r.transformers, t)
	return nil
}

// Sources returns the sources in query order (ascending priority,
// insertion order for ties).
func (r *Resolver) Sources() []Source {
	r.mu.Lock()
	r.ensureSortedLocked()
	sources := make([]Source, len(r.entries))
	for i, e := range r.entries {
		sources[i] = e.source
	}
	r.mu.Unlock()
	return sources
}

// SourceCount returns the number of registered sources.
func (r *Resolver) SourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// MaxPriority returns the highest priority currently registered, and
// false if no sources are registered.
func (r *Resolver) MaxPriority() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return 0, false
	}
	max := r.entries[0].priority
	for _, e := range r.entries[1:] {
		if e.priority > max {
			max = e.priority
		}
	}
	return max, true
}

// ReplaceLastSource swaps the most recently added source for another,
// keeping its priority. Used by the builder to decorate the last source
// with caching. Returns false if no sources are registered.
func (r *Resolver) ReplaceLastSource(src Source) bool {
	if src == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return false
	}
	last := 0
	for i, e := range r.entries {
		if e.seq >= r.entries[last].seq {
			last = i
		}
	}
	r.entries[last].source = src
	r.sorted = false
	return true
}

// Resolve runs the cascade for a key.
//
// Description:
//
//	Iterates sources in priority order. Sources whose Supports check
//	fails are skipped and not recorded as attempted. The first source
//	returning ok=true wins: transformers are applied in registration
//	order and a hit Result is returned carrying the winner's metadata.
//	Later sources are never queried. If every source misses, a miss
//	Result with the full attempted list is returned.
//
//	A source or transformer returning an error aborts resolution; the
//	error propagates to the caller unmodified. Per-source misses are
//	recovered automatically (that is the point of the cascade);
//	per-source faults are not.
//
// Inputs:
//
//	ctx - Context for cancellation of blocking source lookups.
//	key - The key to resolve.
//	rctx - Resolution context passed to every source. May be nil.
//
// Outputs:
//
//	Result - Hit or miss record. Valid whenever error is nil.
//	error - Non-nil only on a source or transformer fault.
func (r *Resolver) Resolve(ctx context.Context, key string, rctx Context) (Result, error) {
	r.mu.Lock()
	r.ensureSortedLocked()
	entries := make([]sourceEntry, len(r.entries))
	copy(entries, r.entries)
	transformers := make([]Transformer, len(r.transformers))
	copy(transformers, r.transformers)
	r.mu.Unlock()

	var attempted []string
	for _, e := range entries {
		if !e.source.Supports(key, rctx) {
			continue
		}
		attempted = append(attempted, e.source.Name())

		value, ok, err := e.source.Get(ctx, key, rctx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		value, err = applyTransformers(transformers, value, e.source)
		if err != nil {
			return Result{}, err
		}
		return Found(value, e.source, attempted, e.source.Metadata()), nil
	}
	return NotFound(attempted), nil
}

// Get resolves a key and falls back to a default on a miss.
//
// Description:
//
//	On a hit, returns the transformed value. On a miss, returns the
//	default: if the default is a func() any it is invoked and its
//	result returned, otherwise the default is returned verbatim.
//	Defaults never pass through transformers.
func (r *Resolver) Get(ctx context.Context, key string, rctx Context, def any) (any, error) {
	result, err := r.Resolve(ctx, key, rctx)
	if err != nil {
		return nil, err
	}
	if result.Found() {
		return result.Value(), nil
	}
	if fn, ok := def.(func() any); ok {
		return fn(), nil
	}
	return def, nil
}

// GetOrFail resolves a key and returns a *ResolutionError on a miss.
//
// The error carries the key and the full attempted-source list so the
// caller can see exactly which sources were consulted.
func (r *Resolver) GetOrFail(ctx context.Context, key string, rctx Context) (any, error) {
	result, err := r.Resolve(ctx, key, rctx)
	if err != nil {
		return nil, err
	}
	if !result.Found() {
		return nil, &ResolutionError{
			Resolver:  r.name,
			Key:       key,
			Attempted: result.Attempted(),
		}
	}
	return result.Value(), nil
}

// GetMany resolves several keys, returning a per-key Result map.
// Misses are ordinary miss Results, never errors.
func (r *Resolver) GetMany(ctx context.Context, keys []string, rctx Context) (map[string]Result, error) {
	results := make(map[string]Result, len(keys))
	for _, key := range keys {
		result, err := r.Resolve(ctx, key, rctx)
		if err != nil {
			return nil, err
		}
		results[key] = result
	}
	return results, nil
}

// ensureSortedLocked sorts entries by (priority, seq) if the cached
// order has been invalidated. Caller must hold the write lock.
func (r *Resolver) ensureSortedLocked() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].priority != r.entries[j].priority {
			return r.entries[i].priority < r.entries[j].priority
		}
		return r.entries[i].seq < r.entries[j].seq
	})
	r.sorted = true
}
