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
	"sync"

	"github.com/AleutianAI/cascade/definition"
)

// Memory is an in-process definition store. Useful for tests and for
// programs that assemble definitions in code.
//
// Thread Safety: Safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	definitions map[string]definition.Definition
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{definitions: make(map[string]definition.Definition)}
}

// Put stores a definition, replacing any prior one with the same name.
// The definition is validated first.
func (m *Memory) Put(def definition.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.definitions[def.Name] = def
	m.mu.Unlock()
	return nil
}

// Delete removes a definition. Removing an absent name is a no-op.
func (m *Memory) Delete(name string) {
	m.mu.Lock()
	delete(m.definitions, name)
	m.mu.Unlock()
}

// Has reports whether a definition with the name exists.
func (m *Memory) Has(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.definitions[name]
	return ok, nil
}

// Get returns the named definition.
func (m *Memory) Get(ctx context.Context, name string) (definition.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.definitions[name]
	if !ok {
		return definition.Definition{}, &NotFoundError{Name: name}
	}
	return def, nil
}

// All returns a copy of every definition keyed by name.
func (m *Memory) All(ctx context.Context) (map[string]definition.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make(map[string]definition.Definition, len(m.definitions))
	for name, def := range m.definitions {
		all[name] = def
	}
	return all, nil
}

// GetMany returns the requested definitions that exist.
func (m *Memory) GetMany(ctx context.Context, names []string) (map[string]definition.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[string]definition.Definition, len(names))
	for _, name := range names {
		if def, ok := m.definitions[name]; ok {
			found[name] = def
		}
	}
	return found, nil
}

// Ensure Memory implements Repository.
var _ Repository = (*Memory)(nil)
