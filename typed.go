/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

// DecodeTag is the struct tag naming a document field.
const DecodeTag = "doc"

// TypedCollection provides type-safe reads for documents shaped like T.
type TypedCollection[T any] struct {
	coll *Collection
}

// NewTypedCollection wraps coll.
func NewTypedCollection[T any](coll *Collection) *TypedCollection[T] {
	return &TypedCollection[T]{coll: coll}
}

// Collection returns the underlying untyped accessor.
func (tc *TypedCollection[T]) Collection() *Collection {
	return tc.coll
}

// Read returns the document as a T, or nil when it does not exist.
func (tc *TypedCollection[T]) Read(ctx context.Context, id string) (*T, error) {
	doc, err := tc.coll.Read(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return Decode[T](doc)
}

// ReadAll returns every matching document as a T.
func (tc *TypedCollection[T]) ReadAll(ctx context.Context, constraints ...storagemodels.Constraint) ([]T, error) {
	docs, err := tc.coll.ReadAll(ctx, constraints...)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

// ReadSingle returns up to limit documents as T, newest first.
func (tc *TypedCollection[T]) ReadSingle(ctx context.Context, limit int) ([]T, error) {
	docs, err := tc.coll.ReadSingle(ctx, limit)
	if err != nil || docs == nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

func decodeAll[T any](docs []storagemodels.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// Decode converts a document into a T using `doc` struct tags. Database
// timestamps and RFC 3339 strings decode into time.Time fields.
func Decode[T any](doc storagemodels.Document) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: DecodeTag,
		Result:  &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timestampHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("failed to decode document %v: %w", doc[storagemodels.FieldID], err)
	}
	return &out, nil
}

var timeType = reflect.TypeOf(time.Time{})

// timestampHook lets registered timestamp types decode into time.Time.
func timestampHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	if t, ok := registry.ConvertTimestamp(data); ok {
		return t, nil
	}
	return data, nil
}
