/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TimestampConverter recognizes a database-native timestamp and converts it to time.Time.
type TimestampConverter func(v any) (time.Time, bool)

type namedConverter struct {
	name string
	fn   TimestampConverter
}

var (
	converterMu sync.RWMutex
	converters  []namedConverter
)

func init() {
	RegisterTimestampConverter("protobuf", func(v any) (time.Time, bool) {
		ts, ok := v.(*timestamppb.Timestamp)
		if !ok || ts == nil {
			return time.Time{}, false
		}
		return ts.AsTime(), true
	})
	RegisterTimestampConverter("strfmt", func(v any) (time.Time, bool) {
		switch dt := v.(type) {
		case strfmt.DateTime:
			return time.Time(dt), true
		case *strfmt.DateTime:
			if dt == nil {
				return time.Time{}, false
			}
			return time.Time(*dt), true
		}
		return time.Time{}, false
	})
}

// RegisterTimestampConverter registers a converter under a unique name.
// If a converter is already registered under the name, it panics to prevent accidental overrides.
func RegisterTimestampConverter(name string, fn TimestampConverter) {
	converterMu.Lock()
	defer converterMu.Unlock()
	for _, c := range converters {
		if c.name == name {
			panic(fmt.Sprintf("timestamp registry: converter %q already registered", name))
		}
	}
	converters = append(converters, namedConverter{name: name, fn: fn})
}

// ConvertTimestamp returns the time.Time for a recognized native timestamp.
// A time.Time is not a native timestamp and is reported as not converted.
func ConvertTimestamp(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	converterMu.RLock()
	defer converterMu.RUnlock()
	for _, c := range converters {
		if t, ok := c.fn(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsTimestamp reports whether v is a recognized native timestamp.
func IsTimestamp(v any) bool {
	_, ok := ConvertTimestamp(v)
	return ok
}
