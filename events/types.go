// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events provides resolution lifecycle events and handling.
//
// Events let external systems observe resolution behavior, collect
// metrics, and implement logging without coupling to the manager
// implementation.
//
// Thread Safety:
//
//	All types in this package are designed for concurrent use.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeSourceQueried is emitted once per attempted source, in
	// attempt order, after a resolution completes.
	TypeSourceQueried Type = "source_queried"

	// TypeValueResolved is emitted once when a resolution hits.
	TypeValueResolved Type = "value_resolved"

	// TypeResolutionFailed is emitted once when a resolution misses
	// every source.
	TypeResolutionFailed Type = "resolution_failed"

	// TypeResolverRegistered is emitted when a resolver is registered
	// with the manager, including replacements.
	TypeResolverRegistered Type = "resolver_registered"
)

// Event represents a resolution lifecycle event.
//
// Event structs should be treated as immutable after creation. The Data
// field holds one of the typed data structs: SourceQueriedData,
// ValueResolvedData, ResolutionFailedData, or ResolverRegisteredData.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Type identifies the kind of event.
	Type Type `json:"type"`

	// Resolver is the name of the resolver that produced the event.
	Resolver string `json:"resolver"`

	// Timestamp is when the event occurred (Unix milliseconds UTC).
	Timestamp int64 `json:"timestamp"`

	// Data contains event-specific data.
	Data any `json:"data,omitempty"`
}

// SourceQueriedData is the data for source-queried events.
type SourceQueriedData struct {
	// SourceName is the name of the attempted source.
	SourceName string `json:"source_name"`

	// Key is the key being resolved.
	Key string `json:"key"`

	// Context is the resolution context the source was queried with.
	Context map[string]any `json:"context,omitempty"`
}

// ValueResolvedData is the data for value-resolved events.
type ValueResolvedData struct {
	// Key is the key that was resolved.
	Key string `json:"key"`

	// Value is the final transformed value.
	Value any `json:"value"`

	// SourceName is the name of the winning source.
	SourceName string `json:"source_name"`

	// DurationMillis is the wall-clock duration of the resolution.
	DurationMillis int64 `json:"duration_ms"`

	// Context is the resolution context.
	Context map[string]any `json:"context,omitempty"`
}

// ResolutionFailedData is the data for resolution-failed events.
type ResolutionFailedData struct {
	// Key is the key that could not be resolved.
	Key string `json:"key"`

	// AttemptedSources are the source names queried, in attempt order.
	AttemptedSources []string `json:"attempted_sources"`

	// Context is the resolution context.
	Context map[string]any `json:"context,omitempty"`
}

// ResolverRegisteredData is the data for resolver-registered events.
type ResolverRegisteredData struct {
	// ResolverName is the name the resolver was registered under.
	ResolverName string `json:"resolver_name"`

	// SourceCount is the number of sources in the resolver.
	SourceCount int `json:"source_count"`

	// Replaced is true when the registration overwrote a prior resolver.
	Replaced bool `json:"replaced"`
}

// nowMillis returns the current time as Unix milliseconds UTC.
func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
