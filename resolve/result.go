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

// Result is the immutable outcome of a single resolution attempt.
//
// Description:
//
//	A Result is constructed only through Found or NotFound, is never
//	mutated afterwards, and is consumed immediately by the caller or
//	the manager. The invariant for misses: Found() is false, Value()
//	is nil, Source() is nil, and Metadata() is empty.
//
// Thread Safety:
//
//	Results are immutable after construction and safe to share.
type Result struct {
	value     any
	found     bool
	source    Source
	attempted []string
	metadata  map[string]any
}

// Found constructs a hit Result.
//
// Inputs:
//
//	value - The resolved value. May legitimately be nil, empty, or zero.
//	source - The source that produced the value.
//	attempted - Source names queried up to and including the winner.
//	metadata - The winning source's metadata.
func Found(value any, source Source, attempted []string, metadata map[string]any) Result {
	return Result{
		value:     value,
		found:     true,
		source:    source,
		attempted: copyStrings(attempted),
		metadata:  copyMetadata(metadata),
	}
}

// NotFound constructs a miss Result carrying only the attempted list.
func NotFound(attempted []string) Result {
	return Result{
		attempted: copyStrings(attempted),
		metadata:  map[string]any{},
	}
}

// Value returns the resolved value, or nil on a miss.
func (r Result) Value() any { return r.value }

// Found reports whether the cascade produced a value.
func (r Result) Found() bool { return r.found }

// Source returns the winning source, or nil on a miss.
func (r Result) Source() Source { return r.source }

// SourceName returns the winning source's name, or "" on a miss.
func (r Result) SourceName() string {
	if r.source == nil {
		return ""
	}
	return r.source.Name()
}

// Attempted returns a copy of the attempted-source names in attempt order.
func (r Result) Attempted() []string {
	return copyStrings(r.attempted)
}

// Metadata returns a copy of the winning source's metadata. Empty on a miss.
func (r Result) Metadata() map[string]any {
	return copyMetadata(r.metadata)
}

// WithValue returns a copy of the Result carrying a different value.
// Used by the resolution conductor to apply post-resolution transformers
// without breaking Result immutability.
func (r Result) WithValue(value any) Result {
	r.value = value
	return r
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
