// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/cascade/badgerstore"
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

// TestBadger_SetGet verifies the JSON round trip.
func TestBadger_SetGet(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", "value", time.Minute))

	v, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

// TestBadger_NumbersDecodeAsFloat64 pins the JSON number caveat.
func TestBadger_NumbersDecodeAsFloat64(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "n", 42, time.Minute))

	v, ok, err := b.Get(ctx, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(42), v)
}

// TestBadger_MissOnAbsent verifies absent keys are cold, not errors.
func TestBadger_MissOnAbsent(t *testing.T) {
	b := newTestBadger(t)

	v, ok, err := b.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

// TestBadger_TTLExpiry verifies native entry TTL turns into a miss.
func TestBadger_TTLExpiry(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", "v", time.Second))
	time.Sleep(1100 * time.Millisecond)

	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestBadger_Delete verifies removal semantics.
func TestBadger_Delete(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", "v", 0))
	require.NoError(t, b.Delete(ctx, "k"))
	require.NoError(t, b.Delete(ctx, "absent"), "deleting an absent key is a no-op")

	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
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

	assert.Error(t, b.Set(ctx, "k", "v", 0))
	_, _, err := b.Get(ctx, "k")
	assert.Error(t, err)
}
