// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package definition describes persisted resolver definitions and
// translates them into live resolvers.
//
// A Definition is the shape a repository hands to the core: a named,
// optionally described list of source specifications. The resolution
// core never interprets this DSL itself; Build performs the
// translation into concrete sources.
package definition

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Source type names accepted in a SourceSpec.
const (
	// TypeMap serves values from the SourceSpec's inline Values map.
	TypeMap = "map"

	// TypeContext echoes the resolution key from the resolution
	// context, ignoring any external store.
	TypeContext = "context"

	// TypeEnv reads the value from a process environment variable,
	// using the SourceSpec's Prefix joined with the upper-cased key.
	TypeEnv = "env"

	// TypeNull always misses; a deliberate placeholder.
	TypeNull = "null"
)

// Definition is a persisted resolver definition.
type Definition struct {
	// Name is the resolver's stable identity.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Description is free-form documentation for operators.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Sources are the source specifications, cascade members.
	Sources []SourceSpec `yaml:"sources" json:"sources" validate:"required,min=1,dive"`

	// Metadata is free-form string metadata attached to the resolver's
	// sources for diagnostics.
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// IsActive gates loading: inactive definitions are skipped by the
	// manager when loading from a repository.
	IsActive bool `yaml:"is_active" json:"is_active"`
}

// SourceSpec describes a single source inside a definition.
type SourceSpec struct {
	// Name is the unique source name within the definition.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Type selects the source variant: map, context, env, or null.
	Type string `yaml:"type" json:"type" validate:"required,oneof=map context env null"`

	// Priority orders the cascade; lower is queried earlier.
	Priority int `yaml:"priority" json:"priority"`

	// Values holds the key-value data for map sources.
	Values map[string]any `yaml:"values,omitempty" json:"values,omitempty"`

	// Prefix is the environment variable prefix for env sources,
	// e.g. "APP_" turns key "db.host" into "APP_DB_HOST".
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// CacheTTL, when positive, wraps the source in a caching decorator
	// with this TTL. Requires a cache collaborator at build time.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`
}

// validate is shared across Validate calls; validator instances cache
// struct metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the definition against its struct constraints and
// the cross-field rules the tags cannot express (duplicate source
// names).
//
// Outputs:
//
//	error - Non-nil if the definition is malformed. Tag violations
//	        come back as validator.ValidationErrors; duplicate names
//	        as a *resolve.SourceConfigError via Build.
func (d *Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("definition %q: %w", d.Name, err)
	}
	seen := make(map[string]struct{}, len(d.Sources))
	for _, spec := range d.Sources {
		if _, dup := seen[spec.Name]; dup {
			return fmt.Errorf("definition %q: duplicate source name %q", d.Name, spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}
