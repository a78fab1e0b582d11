// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/cascade/badgerstore"
	"github.com/AleutianAI/cascade/definition"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	db, err := badgerstore.OpenDB(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b, err := NewBadger(db)
	require.NoError(t, err)
	return b
}

// TestBadger_PutGet verifies the JSON round trip.
func TestBadger_PutGet(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	def := testDefinition("settings")
	def.Description = "persisted"
	require.NoError(t, b.Put(ctx, def))

	got, err := b.Get(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "settings", got.Name)
	assert.Equal(t, "persisted", got.Description)
	assert.True(t, got.IsActive)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, definition.TypeMap, got.Sources[0].Type)
}

// TestBadger_PutValidates verifies malformed definitions are rejected.
func TestBadger_PutValidates(t *testing.T) {
	b := newTestBadger(t)
	assert.Error(t, b.Put(context.Background(), definition.Definition{Name: "broken"}))
}

// TestBadger_GetMissing verifies the not-found error contract.
func TestBadger_GetMissing(t *testing.T) {
	b := newTestBadger(t)

	_, err := b.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)

	ok, err := b.Has(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestBadger_Delete verifies removal semantics.
func TestBadger_Delete(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, testDefinition("settings")))
	require.NoError(t, b.Delete(ctx, "settings"))
	require.NoError(t, b.Delete(ctx, "absent"), "deleting an absent name is a no-op")

	ok, err := b.Has(ctx, "settings")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestBadger_AllAndGetMany verifies bulk accessors over the key prefix.
func TestBadger_AllAndGetMany(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, testDefinition("a")))
	require.NoError(t, b.Put(ctx, testDefinition("b")))

	all, err := b.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all["a"].Name)

	found, err := b.GetMany(ctx, []string{"a", "absent"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found, "a")
}

// TestBadger_NilDB verifies construction validation.
func TestBadger_NilDB(t *testing.T) {
	_, err := NewBadger(nil)
	assert.Error(t, err)
}

// TestBadger_CancelledContext verifies store operations respect
// cancellation before touching the database.
func TestBadger_CancelledContext(t *testing.T) {
	b := newTestBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, b.Put(ctx, testDefinition("settings")))
	_, err := b.Get(ctx, "settings")
	assert.Error(t, err)
}
