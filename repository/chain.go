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

	"github.com/AleutianAI/cascade/definition"
)

// Chain is an ordered fallback over member repositories.
//
// Description:
//
//	Get returns the first member's definition where Has reports true.
//	All merges every member's map with earlier members winning name
//	collisions. GetMany accumulates per member until all requested
//	names are satisfied or members are exhausted.
//
// Thread Safety: Safe for concurrent use when the members are.
type Chain struct {
	members []Repository
}

// NewChain creates a chain over the given members, in fallback order.
//
// Outputs:
//
//	*Chain - The chain.
//	error - ErrEmptyChain if no members are given.
func NewChain(members ...Repository) (*Chain, error) {
	if len(members) == 0 {
		return nil, ErrEmptyChain
	}
	copied := make([]Repository, len(members))
	copy(copied, members)
	return &Chain{members: copied}, nil
}

// Has reports whether any member has the named definition.
func (c *Chain) Has(ctx context.Context, name string) (bool, error) {
	for _, member := range c.members {
		ok, err := member.Has(ctx, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Get returns the definition from the first member that has it.
func (c *Chain) Get(ctx context.Context, name string) (definition.Definition, error) {
	for _, member := range c.members {
		ok, err := member.Has(ctx, name)
		if err != nil {
			return definition.Definition{}, err
		}
		if ok {
			return member.Get(ctx, name)
		}
	}
	return definition.Definition{}, &NotFoundError{Name: name}
}

// All merges every member's definitions; earlier members take
// precedence on name collisions.
func (c *Chain) All(ctx context.Context) (map[string]definition.Definition, error) {
	merged := make(map[string]definition.Definition)
	for _, member := range c.members {
		defs, err := member.All(ctx)
		if err != nil {
			return nil, err
		}
		for name, def := range defs {
			if _, taken := merged[name]; !taken {
				merged[name] = def
			}
		}
	}
	return merged, nil
}

// GetMany accumulates definitions per member until every requested
// name is satisfied or members are exhausted.
func (c *Chain) GetMany(ctx context.Context, names []string) (map[string]definition.Definition, error) {
	found := make(map[string]definition.Definition, len(names))
	remaining := make([]string, len(names))
	copy(remaining, names)

	for _, member := range c.members {
		if len(remaining) == 0 {
			break
		}
		defs, err := member.GetMany(ctx, remaining)
		if err != nil {
			return nil, err
		}
		next := remaining[:0]
		for _, name := range remaining {
			if def, ok := defs[name]; ok {
				found[name] = def
			} else {
				next = append(next, name)
			}
		}
		remaining = next
	}
	return found, nil
}

// Ensure Chain implements Repository.
var _ Repository = (*Chain)(nil)
