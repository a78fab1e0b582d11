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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/cascade/badgerstore"
	"github.com/AleutianAI/cascade/resolve"
)

// badgerKeyPrefix namespaces cache entries so the cache can share a
// database with the definition repository.
const badgerKeyPrefix = "cache:"

// Badger is a BadgerDB-backed cache.
//
// Description:
//
//	Values are JSON-encoded before storage, so only JSON-serializable
//	values survive the round trip; numbers come back as float64 per
//	encoding/json semantics. Expiry uses BadgerDB's native entry TTL,
//	so expired entries read as misses without a sweeper.
//
//	The cache does not own the database; callers open a managed one
//	through badgerstore.OpenDB and close it themselves. This allows the
//	value cache and the definition repository to share a single
//	instance, with the store's GC runner covering both.
//
// Thread Safety: Safe for concurrent use.
type Badger struct {
	db *badgerstore.DB
}

// NewBadger creates a cache over a managed BadgerDB.
//
// Inputs:
//
//	db - A managed database (see badgerstore.OpenDB). Must not be nil.
//
// Outputs:
//
//	*Badger - The cache.
//	error - Non-nil if db is nil.
func NewBadger(db *badgerstore.DB) (*Badger, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &Badger{db: db}, nil
}

// Get returns the cached value for the key.
func (b *Badger) Get(ctx context.Context, key string) (any, bool, error) {
	start := time.Now()

	var raw []byte
	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		recordCacheMiss(ctx, "badger")
		recordCacheGetLatency(ctx, "badger", time.Since(start), false)
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("badger cache get: %w", err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("decode cached value for %q: %w", key, err)
	}

	recordCacheHit(ctx, "badger")
	recordCacheGetLatency(ctx, "badger", time.Since(start), true)
	return value, true, nil
}

// Set stores a value with a TTL. A non-positive TTL stores the value
// without expiry.
func (b *Badger) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %q: %w", key, err)
	}

	err = b.db.WithTxn(ctx, func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerKeyPrefix+key), raw)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger cache set: %w", err)
	}

	recordCacheWrite(ctx, "badger")
	return nil
}

// Delete removes a key. Removing an absent key is a no-op.
func (b *Badger) Delete(ctx context.Context, key string) error {
	err := b.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("badger cache delete: %w", err)
	}
	return nil
}

// Ensure Badger implements resolve.Cache.
var _ resolve.Cache = (*Badger)(nil)
