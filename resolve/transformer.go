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

// Transformer is a pure post-processing step applied to a found value.
//
// Transformers run strictly in registration order, each receiving the
// previous transformer's output plus the source that produced the
// original value, which enables source-conditional transformation.
// They never run on misses and never on default values.
type Transformer interface {
	Transform(value any, source Source) (any, error)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(value any, source Source) (any, error)

// Transform implements Transformer.
func (fn TransformerFunc) Transform(value any, source Source) (any, error) {
	return fn(value, source)
}

// applyTransformers runs the chain over a found value.
func applyTransformers(transformers []Transformer, value any, source Source) (any, error) {
	for _, t := range transformers {
		transformed, err := t.Transform(value, source)
		if err != nil {
			return nil, err
		}
		value = transformed
	}
	return value, nil
}
