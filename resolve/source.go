// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve implements the cascade resolution core: named value
// sources queried in priority order until one produces a value.
//
// A Resolver owns an ordered set of (source, priority) pairs and a list
// of transformers. Resolution walks the sources ascending by priority,
// stops at the first hit, applies the transformers, and returns a Result
// carrying the value plus bookkeeping of which sources were attempted.
//
// The hit/miss contract is presence-based, not truthiness-based: a
// source reporting ok=true with an empty string, zero, or false is a
// hit. Only ok=false is a miss.
//
// Thread Safety:
//
//	Sources are immutable after construction and safe for concurrent
//	use. Resolver guards its source list with a lock; see Resolver.
package resolve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Context is the per-resolution context passed to sources and supports
// predicates. It is distinct from context.Context: it carries caller
// data (tenant, environment, user), not cancellation.
type Context map[string]any

// Merge returns a new Context containing the receiver's entries
// overlaid with the given entries. Neither input is modified.
func (c Context) Merge(other Context) Context {
	merged := make(Context, len(c)+len(other))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Source is a named provider capable of answering whether it can serve
// a key and of producing the value for it.
//
// Description:
//
//	Supports is a side-effect-free pre-check; sources that return false
//	are skipped entirely and do not appear in the attempted-source list.
//	Get performs the actual lookup. ok=false means miss; any value with
//	ok=true is a hit, including zero values. A non-nil error aborts the
//	whole resolution and propagates to the caller unmodified.
type Source interface {
	// Name returns the unique source identifier.
	Name() string

	// Supports reports whether this source can serve the key in the
	// given resolution context. Must be side-effect free.
	Supports(key string, rctx Context) bool

	// Get looks up the value for the key. ok=false means miss.
	Get(ctx context.Context, key string, rctx Context) (value any, ok bool, err error)

	// Metadata returns descriptive metadata about this source. The
	// metadata of the winning source is attached to the Result.
	Metadata() map[string]any
}

// SupportsFunc is a pre-check predicate for a source.
type SupportsFunc func(key string, rctx Context) bool

// GetFunc is a lookup function for a CallbackSource.
type GetFunc func(ctx context.Context, key string, rctx Context) (any, bool, error)

// =============================================================================
// MapSource
// =============================================================================

// MapSource serves values from an immutable key-value map.
type MapSource struct {
	name     string
	values   map[string]any
	supports SupportsFunc
	metadata map[string]any
}

// MapOption configures a MapSource.
type MapOption func(*MapSource)

// WithMapSupports overrides the default constant-true supports check.
func WithMapSupports(fn SupportsFunc) MapOption {
	return func(s *MapSource) {
		s.supports = fn
	}
}

// WithMapMetadata attaches metadata to the source.
func WithMapMetadata(md map[string]any) MapOption {
	return func(s *MapSource) {
		s.metadata = md
	}
}

// NewMapSource creates a source backed by a copy of the given map.
//
// Inputs:
//
//	name - Unique source name. Must not be empty.
//	values - Key-value pairs to serve. Copied; later mutation of the
//	         caller's map does not affect the source.
//	opts - Optional configuration.
//
// Outputs:
//
//	*MapSource - The source.
//	error - Non-nil if name is empty.
func NewMapSource(name string, values map[string]any, opts ...MapOption) (*MapSource, error) {
	if name == "" {
		return nil, ErrEmptySourceName
	}
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	s := &MapSource{name: name, values: copied}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the source name.
func (s *MapSource) Name() string { return s.name }

// Supports returns true unless an override predicate was configured.
func (s *MapSource) Supports(key string, rctx Context) bool {
	if s.supports != nil {
		return s.supports(key, rctx)
	}
	return true
}

// Get performs a direct map lookup. Presence in the map is the hit
// criterion, so stored nil values still count as hits.
func (s *MapSource) Get(ctx context.Context, key string, rctx Context) (any, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

// Metadata returns the configured metadata, or an empty map.
func (s *MapSource) Metadata() map[string]any {
	if s.metadata == nil {
		return map[string]any{}
	}
	return s.metadata
}

// =============================================================================
// CallbackSource
// =============================================================================

// CallbackSource delegates lookups to a caller-supplied function.
type CallbackSource struct {
	name     string
	get      GetFunc
	supports SupportsFunc
	metadata map[string]any
}

// CallbackOption configures a CallbackSource.
type CallbackOption func(*CallbackSource)

// WithCallbackSupports sets an optional supports predicate. Without it
// the source claims support for every key.
func WithCallbackSupports(fn SupportsFunc) CallbackOption {
	return func(s *CallbackSource) {
		s.supports = fn
	}
}

// WithCallbackMetadata attaches metadata to the source.
func WithCallbackMetadata(md map[string]any) CallbackOption {
	return func(s *CallbackSource) {
		s.metadata = md
	}
}

// NewCallbackSource creates a source that delegates to fn.
//
// Inputs:
//
//	name - Unique source name. Must not be empty.
//	fn - Lookup function. Must not be nil.
//	opts - Optional configuration.
//
// Outputs:
//
//	*CallbackSource - The source.
//	error - Non-nil if name is empty or fn is nil.
func NewCallbackSource(name string, fn GetFunc, opts ...CallbackOption) (*CallbackSource, error) {
	if name == "" {
		return nil, ErrEmptySourceName
	}
	if fn == nil {
		return nil, ErrNilCallback
	}
	s := &CallbackSource{name: name, get: fn}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the source name.
func (s *CallbackSource) Name() string { return s.name }

// Supports evaluates the configured predicate, defaulting to true.
func (s *CallbackSource) Supports(key string, rctx Context) bool {
	if s.supports != nil {
		return s.supports(key, rctx)
	}
	return true
}

// Get delegates to the callback.
func (s *CallbackSource) Get(ctx context.Context, key string, rctx Context) (any, bool, error) {
	return s.get(ctx, key, rctx)
}

// Metadata returns the configured metadata, or an empty map.
func (s *CallbackSource) Metadata() map[string]any {
	if s.metadata == nil {
		return map[string]any{}
	}
	return s.metadata
}

// =============================================================================
// NullSource
// =============================================================================

// NullSource always misses. It is a deliberate placeholder for chains
// and tests.
type NullSource struct {
	name string
}

// NewNullSource creates an always-miss source.
func NewNullSource(name string) (*NullSource, error) {
	if name == "" {
		return nil, ErrEmptySourceName
	}
	return &NullSource{name: name}, nil
}

// Name returns the source name.
func (s *NullSource) Name() string { return s.name }

// Supports always returns true; the source participates in the cascade
// and is recorded as attempted, it just never produces a value.
func (s *NullSource) Supports(key string, rctx Context) bool { return true }

// Get always misses.
func (s *NullSource) Get(ctx context.Context, key string, rctx Context) (any, bool, error) {
	return nil, false, nil
}

// Metadata returns an empty map.
func (s *NullSource) Metadata() map[string]any { return map[string]any{} }

// =============================================================================
// Normalization
// =============================================================================

// FromValue normalizes a raw value into a Source.
//
// Description:
//
//	Used by the fluent builders when given something other than a
//	Source instance:
//
//	  - A Source passes through unchanged.
//	  - A string becomes a context-echo callback source: it looks the
//	    resolution key up directly in the resolution context, ignoring
//	    any external store. The string is the source name.
//	  - A map[string]any becomes a MapSource named from a stable hash
//	    of its contents. Structurally identical maps receive identical
//	    names; callers that need distinct diagnostics should construct
//	    named MapSources directly.
//
// Outputs:
//
//	Source - The normalized source.
//	error - *SourceConfigError if the value kind is not normalizable.
func FromValue(v any) (Source, error) {
	switch val := v.(type) {
	case Source:
		return val, nil
	case string:
		return NewCallbackSource(val, func(ctx context.Context, key string, rctx Context) (any, bool, error) {
			value, ok := rctx[key]
			return value, ok, nil
		})
	case map[string]any:
		return NewMapSource("map-"+hashMapContents(val), val)
	default:
		return nil, &SourceConfigError{
			Field:  "source",
			Reason: fmt.Sprintf("cannot normalize %T into a source", v),
		}
	}
}

// hashMapContents produces a stable short hash over map contents.
// Keys are sorted so ordering does not affect the hash.
func hashMapContents(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, values[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
