// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package conductor provides fluent builders over the manager: a
// mutable source-chain builder for assembling resolvers and an
// immutable resolution builder for binding per-call context and
// transformers.
package conductor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/cascade/manager"
	"github.com/AleutianAI/cascade/resolve"
)

// autoPriorityStep is the gap between auto-assigned priorities, leaving
// room to slot sources in between later.
const autoPriorityStep = 10

// chainEntry is an accumulated (source, priority) pair.
type chainEntry struct {
	source   resolve.Source
	priority int
}

// SourceChain is a mutable builder that accumulates (source, priority)
// pairs and registers them as a named resolver.
//
// Description:
//
//	Raw values given to Add and FallbackTo are normalized through
//	resolve.FromValue: a Source passes through, a string becomes a
//	context-echo source, a map[string]any becomes a content-hash-named
//	map source. The first error sticks and surfaces on the next
//	terminal call, so chains stay fluent.
//
//	As(name) builds the accumulated chain into a resolver and
//	registers it with the manager. If a terminal call (Get, Resolve,
//	GetOrFail, GetMany) arrives before As, the chain self-registers
//	once under a generated anonymous name; subsequent calls reuse that
//	registration. Mutating the chain after registration re-registers
//	on the next terminal call, replacing the prior resolver.
//
// Thread Safety:
//
//	Not safe for concurrent use. Build the chain on one goroutine,
//	then resolve through the manager from wherever.
type SourceChain struct {
	manager      *manager.Manager
	entries      []chainEntry
	transformers []resolve.Transformer
	name         string
	registered   bool
	err          error
}

// NewSourceChain creates an empty chain bound to a manager.
func NewSourceChain(m *manager.Manager) *SourceChain {
	return &SourceChain{manager: m}
}

// Add appends a source at an explicit priority. src may be a
// resolve.Source, a string, or a map[string]any.
func (c *SourceChain) Add(src any, priority int) *SourceChain {
	if c.err != nil {
		return c
	}
	normalized, err := resolve.FromValue(src)
	if err != nil {
		c.err = err
		return c
	}
	c.entries = append(c.entries, chainEntry{source: normalized, priority: priority})
	c.registered = false
	return c
}

// FallbackTo appends a source after every existing one: its priority is
// the current maximum plus 10, or 0 for the first source.
func (c *SourceChain) FallbackTo(src any) *SourceChain {
	if c.err != nil {
		return c
	}
	priority := 0
	if len(c.entries) > 0 {
		max := c.entries[0].priority
		for _, e := range c.entries[1:] {
			if e.priority > max {
				max = e.priority
			}
		}
		priority = max + autoPriorityStep
	}
	return c.Add(src, priority)
}

// Transform appends a transformer to the chain under construction.
func (c *SourceChain) Transform(t resolve.Transformer) *SourceChain {
	if c.err != nil {
		return c
	}
	if t == nil {
		c.err = resolve.ErrNilTransformer
		return c
	}
	c.transformers = append(c.transformers, t)
	c.registered = false
	return c
}

// Cache decorates the most recently added source with a caching layer.
// A no-op when no sources have been added yet.
func (c *SourceChain) Cache(cache resolve.Cache, ttl time.Duration) *SourceChain {
	if c.err != nil || len(c.entries) == 0 {
		return c
	}
	last := &c.entries[len(c.entries)-1]
	cached, err := resolve.NewCachedSource(last.source, cache, resolve.WithTTL(ttl))
	if err != nil {
		c.err = err
		return c
	}
	last.source = cached
	c.registered = false
	return c
}

// As registers the accumulated chain under the given name, replacing
// any resolver already registered under it.
func (c *SourceChain) As(name string) *SourceChain {
	if c.err != nil {
		return c
	}
	c.name = name
	c.err = c.register()
	return c
}

// Err returns the first error the chain has accumulated, if any.
func (c *SourceChain) Err() error {
	return c.err
}

// Resolve runs the cascade for a key, self-registering under an
// anonymous name if As was never called.
func (c *SourceChain) Resolve(ctx context.Context, key string, rctx resolve.Context) (resolve.Result, error) {
	if err := c.ensureRegistered(); err != nil {
		return resolve.Result{}, err
	}
	return c.manager.Resolve(ctx, c.name, key, rctx)
}

// Get resolves a key with a default fallback.
func (c *SourceChain) Get(ctx context.Context, key string, rctx resolve.Context, def any) (any, error) {
	if err := c.ensureRegistered(); err != nil {
		return nil, err
	}
	return c.manager.Get(ctx, c.name, key, rctx, def)
}

// GetOrFail resolves a key, failing loudly on a miss.
func (c *SourceChain) GetOrFail(ctx context.Context, key string, rctx resolve.Context) (any, error) {
	if err := c.ensureRegistered(); err != nil {
		return nil, err
	}
	return c.manager.GetOrFail(ctx, c.name, key, rctx)
}

// GetMany resolves several keys.
func (c *SourceChain) GetMany(ctx context.Context, keys []string, rctx resolve.Context) (map[string]resolve.Result, error) {
	if err := c.ensureRegistered(); err != nil {
		return nil, err
	}
	return c.manager.GetMany(ctx, c.name, keys, rctx)
}

// ensureRegistered self-registers on the first terminal call, under an
// anonymous name when As was never used. Idempotent until the chain is
// mutated again.
func (c *SourceChain) ensureRegistered() error {
	if c.err != nil {
		return c.err
	}
	if c.registered {
		return nil
	}
	if c.name == "" {
		c.name = anonymousName()
	}
	return c.register()
}

// register builds the accumulated entries into a resolver and hands it
// to the manager.
func (c *SourceChain) register() error {
	r, err := resolve.New(c.name)
	if err != nil {
		return err
	}
	for _, e := range c.entries {
		if err := r.AddSource(e.source, e.priority); err != nil {
			return err
		}
	}
	for _, t := range c.transformers {
		if err := r.AddTransformer(t); err != nil {
			return err
		}
	}
	if err := c.manager.Register(r); err != nil {
		return err
	}
	c.registered = true
	return nil
}

// anonymousName generates a unique name for self-registered chains.
func anonymousName() string {
	return "anonymous-" + uuid.NewString()
}
