/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/storagemodels"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestMarshalRoundTrip(t *testing.T) {
	when := time.Date(2024, 2, 3, 4, 5, 6, 7000000, time.UTC)
	doc := storagemodels.Document{
		"name":    "Alice",
		"count":   int64(3),
		"ratio":   0.25,
		"created": when,
		"wire":    timestamppb.New(when),
		"raw":     []byte{1, 2, 3},
		"nested":  map[string]any{"at": when, "list": []any{int64(1), "two"}},
		"nothing": nil,
	}

	b, err := Marshal(doc)
	require.NoError(t, err)

	got, err := Unmarshal(b)
	require.NoError(t, err)

	assert.Equal(t, "Alice", got["name"])
	assert.Equal(t, int64(3), got["count"])
	assert.Equal(t, 0.25, got["ratio"])
	assert.Equal(t, []byte{1, 2, 3}, got["raw"])
	assert.Nil(t, got["nothing"])

	created, ok := got["created"].(strfmt.DateTime)
	require.True(t, ok, "created decoded as %T", got["created"])
	assert.True(t, time.Time(created).Equal(when))

	wire, ok := got["wire"].(strfmt.DateTime)
	require.True(t, ok)
	assert.True(t, time.Time(wire).Equal(when))

	nested := got["nested"].(map[string]any)
	assert.IsType(t, strfmt.DateTime{}, nested["at"])
	assert.Equal(t, []any{int64(1), "two"}, nested["list"])
}

func TestDecodeLeavesLookalikesAlone(t *testing.T) {
	got := DecodeValue(map[string]any{TimestampKey: "not a date"})
	assert.Equal(t, map[string]any{TimestampKey: "not a date"}, got)

	got = DecodeValue(map[string]any{TimestampKey: "2024-01-01T00:00:00Z", "other": 1})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Len(t, m, 2)
}
