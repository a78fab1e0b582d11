// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMockEmitter_RecordsEmissions verifies emissions are recorded in
// order with their payloads.
func TestMockEmitter_RecordsEmissions(t *testing.T) {
	m := NewMockEmitter()

	m.Emit(TypeSourceQueried, "settings", SourceQueriedData{SourceName: "s", Key: "k"})
	m.Emit(TypeValueResolved, "settings", ValueResolvedData{Key: "k", Value: "v"})

	assert.Equal(t, 2, m.EventCount())

	recorded := m.GetEvents()
	require.Len(t, recorded, 2)
	assert.Equal(t, TypeSourceQueried, recorded[0].Type)
	assert.Equal(t, TypeValueResolved, recorded[1].Type)
	assert.Equal(t, "settings", recorded[0].Resolver)
	assert.NotEmpty(t, recorded[0].ID)
	assert.Positive(t, recorded[0].Timestamp)

	data, ok := recorded[1].Data.(ValueResolvedData)
	require.True(t, ok)
	assert.Equal(t, "v", data.Value)
}

// TestMockEmitter_GetEventsByType verifies type filtering.
func TestMockEmitter_GetEventsByType(t *testing.T) {
	m := NewMockEmitter()

	m.Emit(TypeSourceQueried, "r", nil)
	m.Emit(TypeValueResolved, "r", nil)
	m.Emit(TypeSourceQueried, "r", nil)

	assert.Len(t, m.GetEventsByType(TypeSourceQueried), 2)
	assert.Len(t, m.GetEventsByType(TypeValueResolved), 1)
	assert.Empty(t, m.GetEventsByType(TypeResolutionFailed))
}

// TestMockEmitter_Clear verifies recorded events can be reset between
// assertions.
func TestMockEmitter_Clear(t *testing.T) {
	m := NewMockEmitter()

	m.Emit(TypeValueResolved, "r", nil)
	m.Clear()

	assert.Equal(t, 0, m.EventCount())
	assert.Empty(t, m.GetEvents())
}

// TestMockEmitter_GetEventsCopies verifies the accessor hands out a
// copy.
func TestMockEmitter_GetEventsCopies(t *testing.T) {
	m := NewMockEmitter()
	m.Emit(TypeValueResolved, "r", nil)

	recorded := m.GetEvents()
	recorded[0].Resolver = "mutated"

	assert.Equal(t, "r", m.GetEvents()[0].Resolver)
}
