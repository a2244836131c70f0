/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

// StampFunc produces the value stored for a ServerTimestamp sentinel.
type StampFunc func() any

// Once returns a StampFunc that calls stamp at most once, so every sentinel
// in one write resolves to the same instant.
func Once(stamp StampFunc) StampFunc {
	var v any
	var done bool
	return func() any {
		if !done {
			v, done = stamp(), true
		}
		return v
	}
}

// CopyDocument returns a deep copy of doc.
func CopyDocument(doc storagemodels.Document) storagemodels.Document {
	if doc == nil {
		return nil
	}
	return storagemodels.Document(copyMap(doc))
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopy(v)
	}
	return out
}

// DeepCopy copies maps and slices recursively. Other values are returned as is.
func DeepCopy(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return copyMap(tv)
	case storagemodels.Document:
		return storagemodels.Document(copyMap(tv))
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = DeepCopy(e)
		}
		return out
	case []byte:
		return append([]byte(nil), tv...)
	}
	return v
}

// PrepareWrite returns a stored form of data for a full-document write:
// sentinels are resolved, containers copied, and Go values narrowed to the
// stored value set (int64, float64, []any, map[string]any).
func PrepareWrite(data storagemodels.Document, stamp StampFunc) (storagemodels.Document, error) {
	out := make(storagemodels.Document, len(data))
	for k, v := range data {
		pv, err := prepareValue(v, stamp, k)
		if err != nil {
			return nil, err
		}
		out[k] = pv
	}
	return out, nil
}

func prepareValue(v any, stamp StampFunc, field string) (any, error) {
	switch tv := v.(type) {
	case nil, bool, string, int64, float64:
		return tv, nil
	case storagemodels.ServerTimestampValue:
		return stamp(), nil
	case storagemodels.ArrayUnionValue:
		return union(nil, tv.Elems, stamp, field)
	case storagemodels.ArrayRemoveValue:
		return []any{}, nil
	case storagemodels.Document:
		return prepareMap(tv, stamp, field)
	case map[string]any:
		return prepareMap(tv, stamp, field)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			if storagemodels.IsTransform(e) {
				return nil, errors.NewValidationError(field, "write transforms are not allowed inside arrays")
			}
			pe, err := prepareValue(e, stamp, field)
			if err != nil {
				return nil, err
			}
			out[i] = pe
		}
		return out, nil
	case []byte:
		return append([]byte(nil), tv...), nil
	case int:
		return int64(tv), nil
	case int8:
		return int64(tv), nil
	case int16:
		return int64(tv), nil
	case int32:
		return int64(tv), nil
	case uint8:
		return int64(tv), nil
	case uint16:
		return int64(tv), nil
	case uint32:
		return int64(tv), nil
	case float32:
		return float64(tv), nil
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i, nil
		}
		f, err := tv.Float64()
		if err != nil {
			return nil, errors.NewValidationError(field, fmt.Sprintf("invalid number %q", tv.String()))
		}
		return f, nil
	}

	if _, ok := v.(time.Time); ok || registry.IsTimestamp(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return prepareValue(rv.Elem().Interface(), stamp, field)
	case reflect.Struct:
		return prepareStruct(rv, stamp, field)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			pe, err := prepareValue(rv.Index(i).Interface(), stamp, field)
			if err != nil {
				return nil, err
			}
			out[i] = pe
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errors.NewValidationError(field, fmt.Sprintf("map keys must be strings, got %s", rv.Type().Key()))
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pe, err := prepareValue(iter.Value().Interface(), stamp, field)
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = pe
		}
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return nil, errors.NewValidationError(field, "unsigned value overflows int64")
		}
		return int64(u), nil
	}

	// Remaining kinds (funcs, channels, complex numbers) are stored as given.
	return v, nil
}

// prepareStruct stores a struct as a map of its exported fields. A "doc" tag
// renames a field; "-" skips it.
func prepareStruct(rv reflect.Value, stamp StampFunc, field string) (map[string]any, error) {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, _, _ := strings.Cut(sf.Tag.Get("doc"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		pv, err := prepareValue(rv.Field(i).Interface(), stamp, field+"."+name)
		if err != nil {
			return nil, err
		}
		out[name] = pv
	}
	return out, nil
}

// operand brings a filter value into the form values are stored in.
func operand(v any) any {
	pv, err := prepareValue(v, func() any { return nil }, "")
	if err != nil {
		return v
	}
	return pv
}

func prepareMap(m map[string]any, stamp StampFunc, field string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		pv, err := prepareValue(v, stamp, field+"."+k)
		if err != nil {
			return nil, err
		}
		out[k] = pv
	}
	return out, nil
}

func union(existing []any, elems []any, stamp StampFunc, field string) ([]any, error) {
	out := append([]any{}, existing...)
	for _, e := range elems {
		pe, err := prepareValue(e, stamp, field)
		if err != nil {
			return nil, err
		}
		if !contains(out, pe) {
			out = append(out, pe)
		}
	}
	return out, nil
}

func remove(existing []any, elems []any, stamp StampFunc, field string) ([]any, error) {
	drop := make([]any, 0, len(elems))
	for _, e := range elems {
		pe, err := prepareValue(e, stamp, field)
		if err != nil {
			return nil, err
		}
		drop = append(drop, pe)
	}
	out := make([]any, 0, len(existing))
	for _, e := range existing {
		if !contains(drop, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ApplyUpdates returns a copy of doc with updates applied. Intermediate maps
// are created as needed; a non-map intermediate value is replaced by a map.
func ApplyUpdates(doc storagemodels.Document, updates []storagemodels.Update, stamp StampFunc) (storagemodels.Document, error) {
	if err := storagemodels.ValidateUpdates(updates); err != nil {
		return nil, err
	}

	out := CopyDocument(doc)
	if out == nil {
		out = storagemodels.Document{}
	}

	for _, u := range updates {
		field := u.Path.String()
		current, _ := Lookup(out, u.Path)

		var value any
		var err error
		switch tv := u.Value.(type) {
		case storagemodels.ArrayUnionValue:
			existing, _ := current.([]any)
			value, err = union(existing, tv.Elems, stamp, field)
		case storagemodels.ArrayRemoveValue:
			existing, _ := current.([]any)
			value, err = remove(existing, tv.Elems, stamp, field)
		default:
			value, err = prepareValue(u.Value, stamp, field)
		}
		if err != nil {
			return nil, err
		}
		setPath(out, u.Path, value)
	}
	return out, nil
}

func setPath(doc storagemodels.Document, path storagemodels.FieldPath, value any) {
	cur := map[string]any(doc)
	for _, seg := range path[:len(path)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}
