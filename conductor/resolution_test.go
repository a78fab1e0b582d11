// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package conductor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/cascade/manager"
	"github.com/AleutianAI/cascade/resolve"
)

// contextEchoManager builds a manager with a resolver that echoes the
// resolution context, plus an inline map fallback.
func contextEchoManager(t *testing.T, values map[string]any) *manager.Manager {
	t.Helper()
	m := manager.New()

	r, err := resolve.New("settings")
	require.NoError(t, err)
	echo, err := resolve.NewCallbackSource("ctx",
		func(ctx context.Context, key string, rctx resolve.Context) (any, bool, error) {
			v, ok := rctx[key]
			return v, ok, nil
		})
	require.NoError(t, err)
	inline, err := resolve.NewMapSource("inline", values)
	require.NoError(t, err)
	require.NoError(t, r.AddSource(echo, 1))
	require.NoError(t, r.AddSource(inline, 10))
	require.NoError(t, m.Register(r))
	return m
}

// TestResolution_ForMergesContext verifies later merges win key
// collisions.
func TestResolution_ForMergesContext(t *testing.T) {
	m := contextEchoManager(t, nil)

	base := NewResolution(m, "settings").For(resolve.Context{"tenant": "base", "region": "us"})
	forked := base.For(resolve.Context{"tenant": "override"})

	assert.Equal(t, "override", forked.Context()["tenant"])
	assert.Equal(t, "us", forked.Context()["region"])

	v, err := forked.GetOrFail(context.Background(), "tenant")
	require.NoError(t, err)
	assert.Equal(t, "override", v)
}

// TestResolution_Immutability verifies For and Transform fork rather
// than mutate.
func TestResolution_Immutability(t *testing.T) {
	m := contextEchoManager(t, map[string]any{"k": "value"})

	base := NewResolution(m, "settings")
	withCtx := base.For(resolve.Context{"tenant": "acme"})
	withTransform := base.Transform(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
		return strings.ToUpper(v.(string)), nil
	}))

	// The template is untouched by either fork.
	assert.Empty(t, base.Context())
	v, err := base.GetOrFail(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "value", v, "template has no transformers")

	assert.Equal(t, "acme", withCtx.Context()["tenant"])
	v, err = withTransform.GetOrFail(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "VALUE", v)
}

// TestResolution_TransformersInOrder verifies bound transformers chain
// in append order on hits.
func TestResolution_TransformersInOrder(t *testing.T) {
	m := contextEchoManager(t, map[string]any{"k": "value"})

	r := NewResolution(m, "settings").
		Transform(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
			return strings.ToUpper(v.(string)), nil
		})).
		Transform(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
			return strings.ReplaceAll(v.(string), "A", "@"), nil
		}))

	result, err := r.Resolve(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "V@LUE", result.Value())
	assert.Equal(t, "inline", result.SourceName())
}

// TestResolution_DefaultsBypassTransformers verifies Get defaults skip
// the bound chain.
func TestResolution_DefaultsBypassTransformers(t *testing.T) {
	m := contextEchoManager(t, nil)

	r := NewResolution(m, "settings").
		Transform(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
			return strings.ToUpper(v.(string)), nil
		}))

	v, err := r.Get(context.Background(), "absent", "lowercase")
	require.NoError(t, err)
	assert.Equal(t, "lowercase", v)

	v, err = r.Get(context.Background(), "absent", func() any { return "computed" })
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
}

// TestResolution_GetOrFailMiss verifies the fail-loud path.
func TestResolution_GetOrFailMiss(t *testing.T) {
	m := contextEchoManager(t, nil)

	_, err := NewResolution(m, "settings").GetOrFail(context.Background(), "absent")
	require.Error(t, err)

	var resErr *resolve.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "settings", resErr.Resolver)
	assert.Equal(t, "absent", resErr.Key)
}

// TestResolution_GetMany verifies bound transformers apply per found
// key.
func TestResolution_GetMany(t *testing.T) {
	m := contextEchoManager(t, map[string]any{"a": "one", "b": "two"})

	r := NewResolution(m, "settings").
		Transform(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
			return strings.ToUpper(v.(string)), nil
		}))

	results, err := r.GetMany(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "ONE", results["a"].Value())
	assert.Equal(t, "TWO", results["b"].Value())
	assert.False(t, results["c"].Found())
}

// TestResolution_UnknownResolver verifies manager lookup failures
// propagate.
func TestResolution_UnknownResolver(t *testing.T) {
	m := manager.New()

	_, err := NewResolution(m, "missing").Resolve(context.Background(), "k")
	assert.ErrorIs(t, err, manager.ErrNoResolvers)
}
