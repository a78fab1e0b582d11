// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manager provides the resolution facade: a registry of named
// resolvers, orchestration of resolve/get/getMany with wall-clock
// timing, lifecycle event emission, and repository loading.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AleutianAI/cascade/definition"
	"github.com/AleutianAI/cascade/events"
	"github.com/AleutianAI/cascade/repository"
	"github.com/AleutianAI/cascade/resolve"
)

// Manager owns a registry of named resolvers and dispatches lifecycle
// events around resolutions.
//
// Description:
//
//	Registering a resolver under an existing name replaces the prior
//	one; there is no merge and no delete. Events are emitted strictly
//	after the resolution call returns: one SourceQueried per attempted
//	source in attempt order, then either ValueResolved or
//	ResolutionFailed.
//
// Thread Safety:
//
//	The registry is guarded by an RWMutex. Registration is expected
//	before or between resolutions (single-writer); concurrent Resolve
//	calls are safe.
type Manager struct {
	mu        sync.RWMutex
	resolvers map[string]*resolve.Resolver

	emitter *events.Emitter
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithEmitter sets the event emitter. Without one, a default emitter
// is created; it is still reachable through Events() for subscribing.
func WithEmitter(e *events.Emitter) Option {
	return func(m *Manager) {
		if e != nil {
			m.emitter = e
		}
	}
}

// WithLogger sets the logger for registry and resolution events.
// If never set, the manager does not log.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager with an empty registry.
func New(opts ...Option) *Manager {
	m := &Manager{
		resolvers: make(map[string]*resolve.Resolver),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.emitter == nil {
		m.emitter = events.NewEmitter()
	}
	return m
}

// Events returns the manager's event emitter for subscribing.
func (m *Manager) Events() *events.Emitter {
	return m.emitter
}

// Register adds a resolver to the registry, replacing any prior
// resolver with the same name.
func (m *Manager) Register(r *resolve.Resolver) error {
	if r == nil {
		return ErrNilResolver
	}
	m.mu.Lock()
	_, replaced := m.resolvers[r.Name()]
	m.resolvers[r.Name()] = r
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("resolver registered",
			"resolver", r.Name(),
			"sources", r.SourceCount(),
			"replaced", replaced,
		)
	}
	m.emitter.Emit(events.TypeResolverRegistered, r.Name(), events.ResolverRegisteredData{
		ResolverName: r.Name(),
		SourceCount:  r.SourceCount(),
		Replaced:     replaced,
	})
	return nil
}

// Has reports whether a resolver is registered under the name.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.resolvers[name]
	return ok
}

// Names returns the registered resolver names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.resolvers))
	for name := range m.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver returns the named resolver.
//
// Outputs:
//
//	*resolve.Resolver - The resolver, when registered.
//	error - ErrNoResolvers when the registry is empty, otherwise a
//	        *NotFoundError carrying every registered name as a
//	        suggestion.
func (m *Manager) Resolver(name string) (*resolve.Resolver, error) {
	m.mu.RLock()
	r, ok := m.resolvers[name]
	empty := len(m.resolvers) == 0
	m.mu.RUnlock()

	if ok {
		return r, nil
	}
	if empty {
		return nil, ErrNoResolvers
	}
	return nil, &NotFoundError{Name: name, Suggestions: m.Names()}
}

// Resolve runs the named resolver's cascade for a key.
//
// Description:
//
//	Delegates to the resolver while measuring wall-clock duration,
//	then — strictly after the resolution returns — emits one
//	SourceQueried event per attempted source in attempt order,
//	followed by ValueResolved on a hit or ResolutionFailed on a miss.
//	Source faults propagate unmodified and emit no result event.
//
// Inputs:
//
//	ctx - Context for cancellation of blocking source lookups.
//	name - Registered resolver name.
//	key - The key to resolve.
//	rctx - Resolution context. May be nil.
//
// Outputs:
//
//	resolve.Result - Hit or miss record. Valid whenever error is nil.
//	error - Registry lookup failure or a propagated source fault.
func (m *Manager) Resolve(ctx context.Context, name, key string, rctx resolve.Context) (resolve.Result, error) {
	r, err := m.Resolver(name)
	if err != nil {
		return resolve.Result{}, err
	}

	ctx, span := startResolveSpan(ctx, name, key)
	defer span.End()

	start := time.Now()
	result, err := r.Resolve(ctx, key, rctx)
	duration := time.Since(start)

	if err != nil {
		resolutionsTotal.WithLabelValues(name, outcomeError).Inc()
		return resolve.Result{}, err
	}

	resolutionLatency.WithLabelValues(name).Observe(duration.Seconds())
	attempted := result.Attempted()
	sourcesAttempted.WithLabelValues(name).Observe(float64(len(attempted)))
	setResolveSpanResult(span, result.Found(), len(attempted))

	for _, sourceName := range attempted {
		m.emitter.Emit(events.TypeSourceQueried, name, events.SourceQueriedData{
			SourceName: sourceName,
			Key:        key,
			Context:    rctx,
		})
	}

	if result.Found() {
		resolutionsTotal.WithLabelValues(name, outcomeHit).Inc()
		m.emitter.Emit(events.TypeValueResolved, name, events.ValueResolvedData{
			Key:            key,
			Value:          result.Value(),
			SourceName:     result.SourceName(),
			DurationMillis: duration.Milliseconds(),
			Context:        rctx,
		})
	} else {
		resolutionsTotal.WithLabelValues(name, outcomeMiss).Inc()
		m.emitter.Emit(events.TypeResolutionFailed, name, events.ResolutionFailedData{
			Key:              key,
			AttemptedSources: attempted,
			Context:          rctx,
		})
	}

	if m.logger != nil {
		m.logger.Debug("resolution completed",
			"resolver", name,
			"key", key,
			"found", result.Found(),
			"source", result.SourceName(),
			"duration_ms", duration.Milliseconds(),
		)
	}
	return result, nil
}

// Get resolves a key through the named resolver, falling back to a
// default on a miss. See resolve.Resolver.Get for default semantics.
func (m *Manager) Get(ctx context.Context, name, key string, rctx resolve.Context, def any) (any, error) {
	result, err := m.Resolve(ctx, name, key, rctx)
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

// GetOrFail resolves a key and returns a *resolve.ResolutionError on a
// miss, carrying the key and the full attempted-source list.
func (m *Manager) GetOrFail(ctx context.Context, name, key string, rctx resolve.Context) (any, error) {
	result, err := m.Resolve(ctx, name, key, rctx)
	if err != nil {
		return nil, err
	}
	if !result.Found() {
		return nil, &resolve.ResolutionError{
			Resolver:  name,
			Key:       key,
			Attempted: result.Attempted(),
		}
	}
	return result.Value(), nil
}

// GetMany resolves several keys through the named resolver. Misses are
// ordinary miss Results, never errors. Events fire per key exactly as
// they do for single resolutions.
func (m *Manager) GetMany(ctx context.Context, name string, keys []string, rctx resolve.Context) (map[string]resolve.Result, error) {
	results := make(map[string]resolve.Result, len(keys))
	for _, key := range keys {
		result, err := m.Resolve(ctx, name, key, rctx)
		if err != nil {
			return nil, err
		}
		results[key] = result
	}
	return results, nil
}

// LoadRepository builds and registers resolvers from every active
// definition in a repository.
//
// Description:
//
//	Pulls all definitions, skips inactive ones, and registers the
//	rest. A definition that fails to build aborts the load; already
//	registered definitions from the same load stay registered.
//
// Inputs:
//
//	ctx - Context for repository access.
//	repo - The definition store.
//	opts - Build collaborators (e.g. definition.WithCache).
//
// Outputs:
//
//	int - Number of resolvers registered.
//	error - Repository access or definition build failure, unmodified.
func (m *Manager) LoadRepository(ctx context.Context, repo repository.Repository, opts ...definition.BuildOption) (int, error) {
	defs, err := repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load definitions: %w", err)
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		def := defs[name]
		if !def.IsActive {
			if m.logger != nil {
				m.logger.Debug("skipping inactive definition", "resolver", name)
			}
			continue
		}
		r, err := definition.Build(def, opts...)
		if err != nil {
			return loaded, fmt.Errorf("build resolver %q: %w", name, err)
		}
		if err := m.Register(r); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
