/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec encodes documents for backends that have no native timestamp or bytes type.
//
// Timestamps become {"$ts": "<RFC3339Nano>"} and byte slices {"$bytes": "<base64>"}.
// Decoding yields strfmt.DateTime for timestamps, which the collection layer converts
// to time.Time like any other database-native timestamp.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

const (
	TimestampKey = "$ts"
	BytesKey     = "$bytes"
)

// Encode returns a copy of doc with timestamps and byte slices tagged.
func Encode(doc storagemodels.Document) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = EncodeValue(v)
	}
	return out
}

// EncodeValue tags a single value.
func EncodeValue(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return encodeTime(tv)
	case []byte:
		return map[string]any{BytesKey: base64.StdEncoding.EncodeToString(tv)}
	case map[string]any:
		return Encode(tv)
	case storagemodels.Document:
		return Encode(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = EncodeValue(e)
		}
		return out
	}
	if t, ok := registry.ConvertTimestamp(v); ok {
		return encodeTime(t)
	}
	return v
}

func encodeTime(t time.Time) map[string]any {
	return map[string]any{TimestampKey: strfmt.DateTime(t.UTC()).String()}
}

// Decode reverses Encode. json.Number values become int64 when integral, else float64.
func Decode(m map[string]any) storagemodels.Document {
	out := make(storagemodels.Document, len(m))
	for k, v := range m {
		out[k] = DecodeValue(v)
	}
	return out
}

// DecodeValue reverses EncodeValue.
func DecodeValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		if len(tv) == 1 {
			if s, ok := tv[TimestampKey].(string); ok {
				if dt, err := strfmt.ParseDateTime(s); err == nil {
					return dt
				}
			}
			if s, ok := tv[BytesKey].(string); ok {
				if b, err := base64.StdEncoding.DecodeString(s); err == nil {
					return b
				}
			}
		}
		return map[string]any(Decode(tv))
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = DecodeValue(e)
		}
		return out
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	}
	return v
}

// Marshal encodes doc as JSON.
func Marshal(doc storagemodels.Document) ([]byte, error) {
	b, err := json.Marshal(Encode(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return b, nil
}

// Unmarshal decodes JSON produced by Marshal.
func Unmarshal(data []byte) (storagemodels.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return Decode(raw), nil
}
