// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package definition

import (
	"context"
	"os"
	"strings"

	"github.com/AleutianAI/cascade/resolve"
)

// BuildOptions configures definition translation.
type BuildOptions struct {
	// Cache is the external cache collaborator used for specs that
	// request caching (CacheTTL > 0). Required only when such a spec
	// is present.
	Cache resolve.Cache
}

// BuildOption is a functional option for Build.
type BuildOption func(*BuildOptions)

// WithCache provides the cache collaborator for cached source specs.
func WithCache(c resolve.Cache) BuildOption {
	return func(o *BuildOptions) {
		o.Cache = c
	}
}

// Build translates a definition into a live resolver.
//
// Description:
//
//	Validates the definition, constructs a source per spec, and
//	registers each at its configured priority. Specs with a positive
//	CacheTTL are wrapped in a caching decorator; this requires a cache
//	collaborator via WithCache, otherwise the build fails.
//
// Inputs:
//
//	def - The definition to translate.
//	opts - Optional collaborators.
//
// Outputs:
//
//	*resolve.Resolver - The built resolver, named after the definition.
//	error - Validation failure or *resolve.SourceConfigError.
func Build(def Definition, opts ...BuildOption) (*resolve.Resolver, error) {
	var options BuildOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	resolver, err := resolve.New(def.Name)
	if err != nil {
		return nil, err
	}

	metadata := specMetadata(def)
	for _, spec := range def.Sources {
		src, err := buildSource(spec, metadata, options)
		if err != nil {
			return nil, err
		}
		if err := resolver.AddSource(src, spec.Priority); err != nil {
			return nil, err
		}
	}
	return resolver, nil
}

// buildSource constructs the source variant a spec names.
func buildSource(spec SourceSpec, metadata map[string]any, options BuildOptions) (resolve.Source, error) {
	var (
		src resolve.Source
		err error
	)

	switch spec.Type {
	case TypeMap:
		src, err = resolve.NewMapSource(spec.Name, spec.Values, resolve.WithMapMetadata(metadata))
	case TypeContext:
		src, err = resolve.NewCallbackSource(spec.Name,
			func(ctx context.Context, key string, rctx resolve.Context) (any, bool, error) {
				value, ok := rctx[key]
				return value, ok, nil
			},
			resolve.WithCallbackMetadata(metadata),
		)
	case TypeEnv:
		prefix := spec.Prefix
		src, err = resolve.NewCallbackSource(spec.Name,
			func(ctx context.Context, key string, rctx resolve.Context) (any, bool, error) {
				value, ok := os.LookupEnv(envName(prefix, key))
				if !ok {
					return nil, false, nil
				}
				return value, true, nil
			},
			resolve.WithCallbackMetadata(metadata),
		)
	case TypeNull:
		src, err = resolve.NewNullSource(spec.Name)
	default:
		return nil, &resolve.SourceConfigError{
			Source: spec.Name,
			Field:  "type",
			Reason: "unknown source type " + spec.Type,
		}
	}
	if err != nil {
		return nil, err
	}

	if spec.CacheTTL > 0 {
		if options.Cache == nil {
			return nil, &resolve.SourceConfigError{
				Source: spec.Name,
				Field:  "cache_ttl",
				Reason: "spec requests caching but no cache collaborator was provided",
			}
		}
		return resolve.NewCachedSource(src, options.Cache, resolve.WithTTL(spec.CacheTTL))
	}
	return src, nil
}

// envName maps a resolution key to an environment variable name:
// dots and dashes become underscores, everything upper-cased, with the
// spec prefix prepended verbatim.
func envName(prefix, key string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return prefix + strings.ToUpper(name)
}

// specMetadata converts a definition's string metadata into source
// metadata. Returns nil when the definition carries none, so sources
// fall back to their empty default.
func specMetadata(def Definition) map[string]any {
	if len(def.Metadata) == 0 {
		return nil
	}
	md := make(map[string]any, len(def.Metadata))
	for k, v := range def.Metadata {
		md[k] = v
	}
	return md
}
