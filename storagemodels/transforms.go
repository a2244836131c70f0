/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// ServerTimestampValue asks the backend to store its commit time.
type ServerTimestampValue struct{}

// ServerTimestamp is the write sentinel for the backend's current time.
var ServerTimestamp = ServerTimestampValue{}

// ArrayUnionValue adds elements to an array field unless a deep-equal element is present.
type ArrayUnionValue struct {
	Elems []any
}

// ArrayRemoveValue removes every deep-equal instance of the elements from an array field.
type ArrayRemoveValue struct {
	Elems []any
}

// ArrayUnion builds an array-union write transform.
func ArrayUnion(elems ...any) ArrayUnionValue {
	return ArrayUnionValue{Elems: elems}
}

// ArrayRemove builds an array-remove write transform.
func ArrayRemove(elems ...any) ArrayRemoveValue {
	return ArrayRemoveValue{Elems: elems}
}

// IsTransform reports whether v is one of the write sentinels.
func IsTransform(v any) bool {
	switch v.(type) {
	case ServerTimestampValue, ArrayUnionValue, ArrayRemoveValue:
		return true
	}
	return false
}
