// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package conductor

import (
	"context"

	"github.com/AleutianAI/cascade/manager"
	"github.com/AleutianAI/cascade/resolve"
)

// Resolution is an immutable per-call builder binding a resolution
// context and extra transformers to a named resolver.
//
// Description:
//
//	Every configuring call (For, Transform) returns a new Resolution;
//	the receiver is never mutated, so a Resolution can be held as a
//	template and forked per request. Terminal calls delegate to the
//	manager and then apply the bound transformers to found values
//	before returning. Bound transformers never run on misses or
//	defaults, matching the resolver's own transformer semantics.
//
// Thread Safety:
//
//	Immutable; safe to share across goroutines.
type Resolution struct {
	manager      *manager.Manager
	resolver     string
	rctx         resolve.Context
	transformers []resolve.Transformer
}

// NewResolution creates a resolution bound to a named resolver with an
// empty context and no transformers.
func NewResolution(m *manager.Manager, resolver string) Resolution {
	return Resolution{manager: m, resolver: resolver}
}

// For returns a new Resolution with the given entries merged into the
// bound context. Later merges win key collisions.
func (r Resolution) For(rctx resolve.Context) Resolution {
	merged := resolve.Context{}.Merge(r.rctx).Merge(rctx)
	next := r
	next.rctx = merged
	return next
}

// Transform returns a new Resolution with the transformer appended.
func (r Resolution) Transform(t resolve.Transformer) Resolution {
	next := r
	next.transformers = make([]resolve.Transformer, len(r.transformers)+1)
	copy(next.transformers, r.transformers)
	next.transformers[len(r.transformers)] = t
	return next
}

// Context returns a copy of the bound resolution context.
func (r Resolution) Context() resolve.Context {
	return resolve.Context{}.Merge(r.rctx)
}

// Resolve runs the cascade and applies the bound transformers to the
// result's value on a hit.
func (r Resolution) Resolve(ctx context.Context, key string) (resolve.Result, error) {
	result, err := r.manager.Resolve(ctx, r.resolver, key, r.rctx)
	if err != nil {
		return resolve.Result{}, err
	}
	if !result.Found() {
		return result, nil
	}
	value, err := r.applyTransformers(result.Value(), result.Source())
	if err != nil {
		return resolve.Result{}, err
	}
	return result.WithValue(value), nil
}

// Get resolves a key with a default fallback. Defaults bypass the
// bound transformers.
func (r Resolution) Get(ctx context.Context, key string, def any) (any, error) {
	result, err := r.Resolve(ctx, key)
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

// GetOrFail resolves a key, failing with a *resolve.ResolutionError on
// a miss.
func (r Resolution) GetOrFail(ctx context.Context, key string) (any, error) {
	result, err := r.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if !result.Found() {
		return nil, &resolve.ResolutionError{
			Resolver:  r.resolver,
			Key:       key,
			Attempted: result.Attempted(),
		}
	}
	return result.Value(), nil
}

// GetMany resolves several keys, applying the bound transformers to
// every found value.
func (r Resolution) GetMany(ctx context.Context, keys []string) (map[string]resolve.Result, error) {
	results := make(map[string]resolve.Result, len(keys))
	for _, key := range keys {
		result, err := r.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		results[key] = result
	}
	return results, nil
}

// applyTransformers runs the bound chain over a found value.
func (r Resolution) applyTransformers(value any, source resolve.Source) (any, error) {
	for _, t := range r.transformers {
		transformed, err := t.Transform(value, source)
		if err != nil {
			return nil, err
		}
		value = transformed
	}
	return value, nil
}
