/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"

	"github.com/suparena/collectionstore/errors"
)

// FieldPath addresses a possibly nested field as an ordered list of segments.
type FieldPath []string

// ParseFieldPath splits a dotted path such as "settings.theme".
func ParseFieldPath(path string) (FieldPath, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", "must not be empty")
	}
	segments := strings.Split(path, ".")
	for i, s := range segments {
		if s == "" {
			return nil, errors.NewValidationError("path", fmt.Sprintf("empty segment %d in %q", i, path))
		}
	}
	return FieldPath(segments), nil
}

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// Root returns the top-level field name.
func (p FieldPath) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// HasPrefix reports whether other addresses p or one of its ancestors.
func (p FieldPath) HasPrefix(other FieldPath) bool {
	if len(other) > len(p) {
		return false
	}
	for i := range other {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Update sets the field at Path to Value. Value may be a write transform.
type Update struct {
	Path  FieldPath
	Value any
}

// ValidateUpdates rejects empty paths and paths that overlap each other.
func ValidateUpdates(updates []Update) error {
	if len(updates) == 0 {
		return errors.NewValidationError("updates", "no updates provided")
	}
	for i, u := range updates {
		if len(u.Path) == 0 {
			return errors.NewValidationError("path", "must not be empty")
		}
		for _, s := range u.Path {
			if s == "" {
				return errors.NewValidationError("path", fmt.Sprintf("empty segment in %q", u.Path.String()))
			}
		}
		for j := 0; j < i; j++ {
			if u.Path.HasPrefix(updates[j].Path) || updates[j].Path.HasPrefix(u.Path) {
				return errors.NewValidationError("path", fmt.Sprintf("%q conflicts with %q", u.Path.String(), updates[j].Path.String()))
			}
		}
	}
	return nil
}
