// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoResolvers indicates a lookup against an empty registry. A
	// distinct error from *NotFoundError so callers can tell "wrong
	// name" apart from "nothing registered at all".
	ErrNoResolvers = errors.New("no resolvers registered")

	// ErrNilResolver indicates a nil resolver was passed to Register.
	ErrNilResolver = errors.New("resolver must not be nil")
)

// NotFoundError indicates the requested resolver name is absent from a
// non-empty registry. Suggestions lists every registered name, sorted.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("resolver %q not found", e.Name)
	if len(e.Suggestions) > 0 {
		msg += " (registered resolvers: " + strings.Join(e.Suggestions, ", ") + ")"
	}
	return msg
}
