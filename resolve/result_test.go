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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNotFound_Invariants verifies the miss contract.
func TestNotFound_Invariants(t *testing.T) {
	r := NotFound([]string{"a", "b"})

	assert.False(t, r.Found())
	assert.Nil(t, r.Value())
	assert.Nil(t, r.Source())
	assert.Equal(t, "", r.SourceName())
	assert.Empty(t, r.Metadata())
	assert.Equal(t, []string{"a", "b"}, r.Attempted())
}

// TestFound_NilValueStillFound verifies a nil value with found=true is
// a legitimate hit.
func TestFound_NilValueStillFound(t *testing.T) {
	src, err := NewNullSource("s")
	require.NoError(t, err)

	r := Found(nil, src, []string{"s"}, nil)
	assert.True(t, r.Found())
	assert.Nil(t, r.Value())
	assert.Equal(t, "s", r.SourceName())
}

// TestResult_DefensiveCopies verifies accessors hand out copies.
func TestResult_DefensiveCopies(t *testing.T) {
	src, err := NewNullSource("s")
	require.NoError(t, err)

	attempted := []string{"s"}
	metadata := map[string]any{"k": "v"}
	r := Found("value", src, attempted, metadata)

	// Mutating the construction inputs must not reach the Result.
	attempted[0] = "mutated"
	metadata["k"] = "mutated"
	assert.Equal(t, []string{"s"}, r.Attempted())
	assert.Equal(t, "v", r.Metadata()["k"])

	// Mutating accessor outputs must not reach the Result either.
	r.Attempted()[0] = "mutated"
	r.Metadata()["k"] = "mutated"
	assert.Equal(t, []string{"s"}, r.Attempted())
	assert.Equal(t, "v", r.Metadata()["k"])
}

// TestResult_WithValue verifies the value swap preserves everything
// else and leaves the original untouched.
func TestResult_WithValue(t *testing.T) {
	src, err := NewNullSource("s")
	require.NoError(t, err)

	orig := Found("before", src, []string{"s"}, map[string]any{"k": "v"})
	next := orig.WithValue("after")

	assert.Equal(t, "before", orig.Value())
	assert.Equal(t, "after", next.Value())
	assert.True(t, next.Found())
	assert.Equal(t, "s", next.SourceName())
	assert.Equal(t, []string{"s"}, next.Attempted())
	assert.Equal(t, "v", next.Metadata()["k"])
}
