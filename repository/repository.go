// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repository provides stores of persisted resolver definitions.
//
// A Repository is a collaborator of the resolution core: it stores
// resolver *definitions* (configuration), as opposed to a source,
// which provides resolved *values*. Implementations: Memory, File
// (YAML), Badger (embedded BadgerDB), and Chain (ordered fallback over
// other repositories).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/cascade/definition"
)

// Sentinel errors shared by all repository implementations.
var (
	// ErrDefinitionNotFound indicates the named definition is absent.
	ErrDefinitionNotFound = errors.New("resolver definition not found")

	// ErrEmptyChain indicates a chain was constructed with no members.
	ErrEmptyChain = errors.New("repository chain must contain at least one repository")
)

// NotFoundError wraps ErrDefinitionNotFound with the missing name.
type NotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolver definition %q not found", e.Name)
}

// Unwrap makes the error match errors.Is(err, ErrDefinitionNotFound).
func (e *NotFoundError) Unwrap() error {
	return ErrDefinitionNotFound
}

// Repository is a store of persisted resolver definitions.
//
// GetMany returns partial results: omitted names mean "not found in
// this repository" and are never an error.
type Repository interface {
	// Has reports whether a definition with the name exists.
	Has(ctx context.Context, name string) (bool, error)

	// Get returns the named definition, or a *NotFoundError.
	Get(ctx context.Context, name string) (definition.Definition, error)

	// All returns every definition keyed by name.
	All(ctx context.Context) (map[string]definition.Definition, error)

	// GetMany returns the requested definitions that exist, keyed by
	// name. Missing names are simply omitted.
	GetMany(ctx context.Context, names []string) (map[string]definition.Definition, error)
}
