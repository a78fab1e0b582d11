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
	"errors"
	"strconv"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrEmptySourceName indicates a source was constructed without a name.
	ErrEmptySourceName = errors.New("source name must not be empty")

	// ErrNilCallback indicates a callback source was given a nil function.
	ErrNilCallback = errors.New("callback function must not be nil")

	// ErrNilSource indicates a nil source was passed where one is required.
	ErrNilSource = errors.New("source must not be nil")

	// ErrNilTransformer indicates a nil transformer was registered.
	ErrNilTransformer = errors.New("transformer must not be nil")

	// ErrNilCache indicates a caching source was constructed without a cache.
	ErrNilCache = errors.New("cache must not be nil")

	// ErrEmptyResolverName indicates a resolver was constructed without a name.
	ErrEmptyResolverName = errors.New("resolver name must not be empty")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ResolutionError indicates GetOrFail found no value for a key. It
// carries the full attempted-source list for diagnostics.
type ResolutionError struct {
	// Resolver is the name of the resolver that ran the cascade.
	Resolver string

	// Key is the key that could not be resolved.
	Key string

	// Attempted are the names of the sources queried, in attempt order.
	Attempted []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("no value resolved for key ")
	b.WriteString(strconv.Quote(e.Key))
	if e.Resolver != "" {
		b.WriteString(" in resolver ")
		b.WriteString(strconv.Quote(e.Resolver))
	}
	if len(e.Attempted) > 0 {
		b.WriteString(" (attempted sources: ")
		b.WriteString(strings.Join(e.Attempted, ", "))
		b.WriteString(")")
	} else {
		b.WriteString(" (no sources attempted)")
	}
	return b.String()
}

// SourceConfigError indicates a malformed source specification: a
// missing required field, a wrong type, a duplicate name, or an
// invalid priority. Raised when building sources from external
// definitions, never during resolution itself.
type SourceConfigError struct {
	// Source is the name of the offending source, if known.
	Source string

	// Field is the offending field.
	Field string

	// Reason describes what is wrong.
	Reason string
}

// Error implements the error interface.
func (e *SourceConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid source configuration")
	if e.Source != "" {
		b.WriteString(" for ")
		b.WriteString(strconv.Quote(e.Source))
	}
	if e.Field != "" {
		b.WriteString(" (field ")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}
