// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/AleutianAI/cascade/resolve"
)

// ExampleResolver shows a layered settings cascade: per-request context
// first, then an inline defaults map.
func ExampleResolver() {
	overrides, _ := resolve.NewCallbackSource("request",
		func(ctx context.Context, key string, rctx resolve.Context) (any, bool, error) {
			v, ok := rctx[key]
			return v, ok, nil
		})
	defaults, _ := resolve.NewMapSource("defaults", map[string]any{
		"timeout": "30s",
		"region":  "us-east-1",
	})

	r, _ := resolve.New("settings")
	_ = r.AddSource(overrides, 1)
	_ = r.AddSource(defaults, 10)

	rctx := resolve.Context{"region": "eu-west-1"}
	result, _ := r.Resolve(context.Background(), "region", rctx)
	fmt.Println(result.Value(), "from", result.SourceName())

	result, _ = r.Resolve(context.Background(), "timeout", rctx)
	fmt.Println(result.Value(), "from", result.SourceName())

	// Output:
	// eu-west-1 from request
	// 30s from defaults
}

// ExampleResolver_transformers shows transformers applying in
// registration order to found values only.
func ExampleResolver_transformers() {
	src, _ := resolve.NewMapSource("inline", map[string]any{"greeting": "hello"})

	r, _ := resolve.New("greetings")
	_ = r.AddSource(src, 1)
	_ = r.AddTransformer(resolve.TransformerFunc(func(v any, s resolve.Source) (any, error) {
		return strings.ToUpper(v.(string)), nil
	}))

	value, _ := r.Get(context.Background(), "greeting", nil, "fallback")
	fmt.Println(value)

	value, _ = r.Get(context.Background(), "missing", nil, "fallback")
	fmt.Println(value)

	// Output:
	// HELLO
	// fallback
}
