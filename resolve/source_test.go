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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMapSource_PresenceNotTruthiness verifies empty and zero values
// stored in the map are hits.
func TestMapSource_PresenceNotTruthiness(t *testing.T) {
	src, err := NewMapSource("m", map[string]any{
		"empty": "",
		"zero":  0,
		"false": false,
		"nil":   nil,
	})
	require.NoError(t, err)

	for _, key := range []string{"empty", "zero", "false", "nil"} {
		t.Run(key, func(t *testing.T) {
			_, ok, err := src.Get(context.Background(), key, nil)
			require.NoError(t, err)
			assert.True(t, ok, "stored %q must be a hit", key)
		})
	}

	t.Run("absent key misses", func(t *testing.T) {
		_, ok, err := src.Get(context.Background(), "absent", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// TestMapSource_CopiesValues verifies mutating the caller's map after
// construction does not affect the source.
func TestMapSource_CopiesValues(t *testing.T) {
	values := map[string]any{"k": "original"}
	src, err := NewMapSource("m", values)
	require.NoError(t, err)

	values["k"] = "mutated"
	v, ok, err := src.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "original", v)
}

// TestMapSource_SupportsOverride verifies the supports predicate gates
// participation.
func TestMapSource_SupportsOverride(t *testing.T) {
	src, err := NewMapSource("m", map[string]any{"a": 1},
		WithMapSupports(func(key string, rctx Context) bool {
			return rctx["env"] == "prod"
		}))
	require.NoError(t, err)

	assert.True(t, src.Supports("a", Context{"env": "prod"}))
	assert.False(t, src.Supports("a", Context{"env": "dev"}))
	assert.False(t, src.Supports("a", nil))
}

// TestCallbackSource verifies delegation and validation.
func TestCallbackSource(t *testing.T) {
	t.Run("delegates to callback", func(t *testing.T) {
		src, err := NewCallbackSource("cb", func(ctx context.Context, key string, rctx Context) (any, bool, error) {
			if key == "hit" {
				return "value", true, nil
			}
			return nil, false, nil
		})
		require.NoError(t, err)

		v, ok, err := src.Get(context.Background(), "hit", nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "value", v)

		_, ok, err = src.Get(context.Background(), "miss", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil callback rejected", func(t *testing.T) {
		_, err := NewCallbackSource("cb", nil)
		assert.ErrorIs(t, err, ErrNilCallback)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := NewCallbackSource("", func(ctx context.Context, key string, rctx Context) (any, bool, error) {
			return nil, false, nil
		})
		assert.ErrorIs(t, err, ErrEmptySourceName)
	})

	t.Run("metadata option", func(t *testing.T) {
		src, err := NewCallbackSource("cb", func(ctx context.Context, key string, rctx Context) (any, bool, error) {
			return nil, false, nil
		}, WithCallbackMetadata(map[string]any{"kind": "test"}))
		require.NoError(t, err)
		assert.Equal(t, "test", src.Metadata()["kind"])
	})
}

// TestNullSource verifies the always-miss contract.
func TestNullSource(t *testing.T) {
	src, err := NewNullSource("n")
	require.NoError(t, err)

	assert.Equal(t, "n", src.Name())
	assert.True(t, src.Supports("anything", nil))

	v, ok, err := src.Get(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

// TestFromValue verifies raw-value normalization for the fluent
// builders.
func TestFromValue(t *testing.T) {
	t.Run("source passes through", func(t *testing.T) {
		orig, err := NewNullSource("n")
		require.NoError(t, err)

		src, err := FromValue(orig)
		require.NoError(t, err)
		assert.Same(t, Source(orig), src)
	})

	t.Run("string becomes context-echo source", func(t *testing.T) {
		src, err := FromValue("ctx-source")
		require.NoError(t, err)
		assert.Equal(t, "ctx-source", src.Name())

		v, ok, err := src.Get(context.Background(), "tenant", Context{"tenant": "acme"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "acme", v)

		_, ok, err = src.Get(context.Background(), "absent", Context{"tenant": "acme"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("map becomes hash-named map source", func(t *testing.T) {
		src, err := FromValue(map[string]any{"a": 1})
		require.NoError(t, err)

		v, ok, err := src.Get(context.Background(), "a", nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Regexp(t, `^map-[0-9a-f]{12}$`, src.Name())
	})

	t.Run("identical maps share a name", func(t *testing.T) {
		first, err := FromValue(map[string]any{"a": 1, "b": 2})
		require.NoError(t, err)
		second, err := FromValue(map[string]any{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, first.Name(), second.Name())
	})

	t.Run("different maps get different names", func(t *testing.T) {
		first, err := FromValue(map[string]any{"a": 1})
		require.NoError(t, err)
		second, err := FromValue(map[string]any{"a": 2})
		require.NoError(t, err)
		assert.NotEqual(t, first.Name(), second.Name())
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := FromValue(42)
		require.Error(t, err)

		var cfgErr *SourceConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}
