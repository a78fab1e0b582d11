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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is the TTL applied when no TTL option is given.
const DefaultCacheTTL = 5 * time.Minute

// Cache is the external key-value store consulted by a CachedSource.
// Implementations live outside the resolution core (see the cache
// package for an in-memory and a BadgerDB-backed store).
type Cache interface {
	// Get returns the cached value for the key. ok=false means cold.
	Get(ctx context.Context, key string) (value any, ok bool, err error)

	// Set stores a value under the key with a time-to-live.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// KeyFunc computes the cache key for a (key, context) pair.
type KeyFunc func(key string, rctx Context) string

// CachedSource decorates an inner source with an external cache.
//
// Description:
//
//	On Get, the cache is consulted first; a warm entry is returned
//	without touching the inner source. On a cold cache the inner
//	source is queried, and a hit is written back with the configured
//	TTL. Inner-source misses are not cached. Concurrent lookups for
//	the same cache key are collapsed to a single inner-source call.
//
//	Cache write failures are logged at Warn and otherwise ignored: the
//	value is already in hand, so a failed write only costs latency on
//	the next call.
//
// Thread Safety:
//
//	Safe for concurrent use when the inner source and cache are.
type CachedSource struct {
	inner  Source
	cache  Cache
	ttl    time.Duration
	keyFn  KeyFunc
	logger *slog.Logger
	group  singleflight.Group
}

// CachedOption configures a CachedSource.
type CachedOption func(*CachedSource)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) CachedOption {
	return func(s *CachedSource) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyFunc overrides the default cache key scheme.
func WithKeyFunc(fn KeyFunc) CachedOption {
	return func(s *CachedSource) {
		if fn != nil {
			s.keyFn = fn
		}
	}
}

// WithCacheLogger sets the logger for cache write failures.
// If never set, write failures are silently dropped.
func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(s *CachedSource) {
		s.logger = logger
	}
}

// NewCachedSource decorates inner with the given cache.
//
// Inputs:
//
//	inner - The source to decorate. Must not be nil.
//	cache - External cache store. Must not be nil.
//	opts - Optional TTL, key scheme, and logger.
//
// Outputs:
//
//	*CachedSource - The decorator. Its name is "<inner>-cached" so
//	                attempted-source lists stay debuggable.
//	error - Non-nil if inner or cache is nil.
func NewCachedSource(inner Source, cache Cache, opts ...CachedOption) (*CachedSource, error) {
	if inner == nil {
		return nil, ErrNilSource
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	s := &CachedSource{
		inner: inner,
		cache: cache,
		ttl:   DefaultCacheTTL,
		keyFn: DefaultCacheKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the inner source's name suffixed with "-cached".
func (s *CachedSource) Name() string {
	return s.inner.Name() + "-cached"
}

// Supports delegates to the inner source.
func (s *CachedSource) Supports(key string, rctx Context) bool {
	return s.inner.Supports(key, rctx)
}

// Metadata delegates to the inner source.
func (s *CachedSource) Metadata() map[string]any {
	return s.inner.Metadata()
}

// Get consults the cache before delegating to the inner source.
func (s *CachedSource) Get(ctx context.Context, key string, rctx Context) (any, bool, error) {
	cacheKey := s.keyFn(key, rctx)

	cached, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup for %s: %w", s.Name(), err)
	}
	if ok {
		return cached, true, nil
	}

	type lookup struct {
		value any
		ok    bool
	}
	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		value, ok, err := s.inner.Get(ctx, key, rctx)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := s.cache.Set(ctx, cacheKey, value, s.ttl); err != nil && s.logger != nil {
				s.logger.Warn("cache write failed",
					"source", s.Name(),
					"cache_key", cacheKey,
					"error", err.Error(),
				)
			}
		}
		return lookup{value: value, ok: ok}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(lookup)
	return res.value, res.ok, nil
}

// DefaultCacheKey is the default cache key scheme: a stable sha256
// over the key and the sorted resolution context.
func DefaultCacheKey(key string, rctx Context) string {
	names := make([]string, 0, len(rctx))
	for k := range rctx {
		names = append(names, k)
	}
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "key=%s;", key)
	for _, k := range names {
		fmt.Fprintf(h, "%s=%v;", k, rctx[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
