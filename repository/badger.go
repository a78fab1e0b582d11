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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/cascade/badgerstore"
	"github.com/AleutianAI/cascade/definition"
)

// badgerKeyPrefix namespaces definitions so the repository can share a
// database with the value cache.
const badgerKeyPrefix = "definition:"

// Badger is a BadgerDB-backed definition store.
//
// Description:
//
//	Definitions are JSON-encoded under "definition:<name>" keys. The
//	repository does not own the database; callers open a managed one
//	through badgerstore.OpenDB and close it themselves, which lets the
//	definition store and the value cache share a single instance, with
//	the store's GC runner covering both.
//
// Thread Safety: Safe for concurrent use.
type Badger struct {
	db *badgerstore.DB
}

// NewBadger creates a repository over a managed BadgerDB.
func NewBadger(db *badgerstore.DB) (*Badger, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &Badger{db: db}, nil
}

// Put stores a definition, replacing any prior one with the same name.
// The definition is validated first.
func (b *Badger) Put(ctx context.Context, def definition.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode definition %q: %w", def.Name, err)
	}
	err = b.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+def.Name), raw)
	})
	if err != nil {
		return fmt.Errorf("store definition %q: %w", def.Name, err)
	}
	return nil
}

// Delete removes a definition. Removing an absent name is a no-op.
func (b *Badger) Delete(ctx context.Context, name string) error {
	err := b.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + name))
	})
	if err != nil {
		return fmt.Errorf("delete definition %q: %w", name, err)
	}
	return nil
}

// Has reports whether a definition with the name exists.
func (b *Badger) Has(ctx context.Context, name string) (bool, error) {
	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerKeyPrefix + name))
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check definition %q: %w", name, err)
	}
	return true, nil
}

// Get returns the named definition.
func (b *Badger) Get(ctx context.Context, name string) (definition.Definition, error) {
	var def definition.Definition
	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, &def)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return definition.Definition{}, &NotFoundError{Name: name}
	case err != nil:
		return definition.Definition{}, fmt.Errorf("load definition %q: %w", name, err)
	}
	return def, nil
}

// All returns every definition keyed by name.
func (b *Badger) All(ctx context.Context) (map[string]definition.Definition, error) {
	all := make(map[string]definition.Definition)
	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), badgerKeyPrefix)
			var def definition.Definition
			if err := item.Value(func(raw []byte) error {
				return json.Unmarshal(raw, &def)
			}); err != nil {
				return fmt.Errorf("decode definition %q: %w", name, err)
			}
			all[name] = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GetMany returns the requested definitions that exist.
func (b *Badger) GetMany(ctx context.Context, names []string) (map[string]definition.Definition, error) {
	found := make(map[string]definition.Definition, len(names))
	for _, name := range names {
		def, err := b.Get(ctx, name)
		if err != nil {
			if errors.Is(err, ErrDefinitionNotFound) {
				continue
			}
			return nil, err
		}
		found[name] = def
	}
	return found, nil
}

// Ensure Badger implements Repository.
var _ Repository = (*Badger)(nil)
