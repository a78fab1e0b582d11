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
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/cascade/definition"
)

// MaxDefinitionFileSize is the maximum allowed definition file size
// (1MB). Prevents memory issues from large files.
const MaxDefinitionFileSize = 1024 * 1024

// definitionFile is the root structure for YAML deserialization.
type definitionFile struct {
	Resolvers []definition.Definition `yaml:"resolvers"`
}

// File is a YAML-backed definition store.
//
// Description:
//
//	The file holds a top-level "resolvers" list of definitions. The
//	whole file is parsed and validated on load; a malformed file is
//	surfaced unmodified to the caller, never swallowed. Reload()
//	re-reads the file in place, which the Watcher uses for live
//	updates.
//
// Thread Safety: Safe for concurrent use.
type File struct {
	path string

	mu          sync.RWMutex
	definitions map[string]definition.Definition
}

// NewFile loads a YAML definition file.
//
// Inputs:
//
//	path - Path to the YAML file. Must exist and parse.
//
// Outputs:
//
//	*File - The loaded repository.
//	error - Non-nil on read, size, parse, or validation failure.
func NewFile(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Reload re-reads and re-parses the backing file.
//
// On failure the previously loaded definitions stay in effect, so a
// half-written file during live reload does not wipe the repository.
func (f *File) Reload() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat definition file: %w", err)
	}
	if info.Size() > MaxDefinitionFileSize {
		return fmt.Errorf("definition file %s exceeds %d bytes", f.path, MaxDefinitionFileSize)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read definition file: %w", err)
	}

	var root definitionFile
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse definition file %s: %w", f.path, err)
	}

	parsed := make(map[string]definition.Definition, len(root.Resolvers))
	for _, def := range root.Resolvers {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("definition file %s: %w", f.path, err)
		}
		if _, dup := parsed[def.Name]; dup {
			return fmt.Errorf("definition file %s: duplicate resolver name %q", f.path, def.Name)
		}
		parsed[def.Name] = def
	}

	f.mu.Lock()
	f.definitions = parsed
	f.mu.Unlock()
	return nil
}

// Has reports whether a definition with the name exists.
func (f *File) Has(ctx context.Context, name string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.definitions[name]
	return ok, nil
}

// Get returns the named definition.
func (f *File) Get(ctx context.Context, name string) (definition.Definition, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	def, ok := f.definitions[name]
	if !ok {
		return definition.Definition{}, &NotFoundError{Name: name}
	}
	return def, nil
}

// All returns a copy of every definition keyed by name.
func (f *File) All(ctx context.Context) (map[string]definition.Definition, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	all := make(map[string]definition.Definition, len(f.definitions))
	for name, def := range f.definitions {
		all[name] = def
	}
	return all, nil
}

// GetMany returns the requested definitions that exist.
func (f *File) GetMany(ctx context.Context, names []string) (map[string]definition.Definition, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	found := make(map[string]definition.Definition, len(names))
	for _, name := range names {
		if def, ok := f.definitions[name]; ok {
			found[name] = def
		}
	}
	return found, nil
}

// Ensure File implements Repository.
var _ Repository = (*File)(nil)
