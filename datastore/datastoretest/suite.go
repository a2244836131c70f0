/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package datastoretest holds the behavior suite every datastore.Client must pass.
package datastoretest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

// Run exercises client against the shared contract. Each subtest uses a fresh
// collection name so the suite can run against a shared database.
func Run(t *testing.T, client datastore.Client) {
	ctx := context.Background()
	fresh := func() string { return "suite_" + uuid.NewString() }

	t.Run("GetMissing", func(t *testing.T) {
		doc, found, err := client.Get(ctx, fresh(), "nope")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, doc)
	})

	t.Run("AddThenGet", func(t *testing.T) {
		coll := fresh()
		id, err := client.Add(ctx, coll, storagemodels.Document{
			"name":    "Alice",
			"age":     30,
			"score":   1.5,
			"tags":    []string{"a", "b"},
			"profile": map[string]any{"city": "Oslo"},
			"created": storagemodels.ServerTimestamp,
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, found, err := client.Get(ctx, coll, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Alice", doc["name"])
		assert.Equal(t, int64(30), doc["age"])
		assert.Equal(t, 1.5, doc["score"])
		assert.Equal(t, []any{"a", "b"}, doc["tags"])
		assert.Equal(t, map[string]any{"city": "Oslo"}, asPlainMap(doc["profile"]))
		AssertRecent(t, doc["created"])
	})

	t.Run("SetReplaces", func(t *testing.T) {
		coll := fresh()
		require.NoError(t, client.Set(ctx, coll, "d1", storagemodels.Document{"a": 1, "b": 2}))
		require.NoError(t, client.Set(ctx, coll, "d1", storagemodels.Document{"c": 3}))

		doc, found, err := client.Get(ctx, coll, "d1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, storagemodels.Document{"c": int64(3)}, doc)
	})

	t.Run("UpdateNested", func(t *testing.T) {
		coll := fresh()
		require.NoError(t, client.Set(ctx, coll, "d1", storagemodels.Document{
			"name":     "Alice",
			"settings": map[string]any{"theme": "light", "lang": "en"},
		}))

		require.NoError(t, client.Update(ctx, coll, "d1", []storagemodels.Update{
			{Path: storagemodels.FieldPath{"settings", "theme"}, Value: "dark"},
			{Path: storagemodels.FieldPath{"touched"}, Value: storagemodels.ServerTimestamp},
		}))

		doc, _, err := client.Get(ctx, coll, "d1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", doc["name"])
		assert.Equal(t, map[string]any{"theme": "dark", "lang": "en"}, asPlainMap(doc["settings"]))
		AssertRecent(t, doc["touched"])
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := client.Update(ctx, fresh(), "ghost", []storagemodels.Update{
			{Path: storagemodels.FieldPath{"a"}, Value: 1},
		})
		assert.True(t, errors.IsNotFound(err), "got %v", err)
	})

	t.Run("ArrayTransforms", func(t *testing.T) {
		coll := fresh()
		require.NoError(t, client.Set(ctx, coll, "d1", storagemodels.Document{
			"tags": []any{"a", "b", "a"},
		}))

		require.NoError(t, client.Update(ctx, coll, "d1", []storagemodels.Update{
			{Path: storagemodels.FieldPath{"tags"}, Value: storagemodels.ArrayUnion("b", "c")},
		}))
		doc, _, err := client.Get(ctx, coll, "d1")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "a", "c"}, doc["tags"])

		require.NoError(t, client.Update(ctx, coll, "d1", []storagemodels.Update{
			{Path: storagemodels.FieldPath{"tags"}, Value: storagemodels.ArrayRemove("a")},
		}))
		doc, _, err = client.Get(ctx, coll, "d1")
		require.NoError(t, err)
		assert.Equal(t, []any{"b", "c"}, doc["tags"])
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		coll := fresh()
		require.NoError(t, client.Set(ctx, coll, "d1", storagemodels.Document{"a": 1}))
		require.NoError(t, client.Delete(ctx, coll, "d1"))
		require.NoError(t, client.Delete(ctx, coll, "d1"))

		_, found, err := client.Get(ctx, coll, "d1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("QueryAndCount", func(t *testing.T) {
		coll := fresh()
		for id, doc := range map[string]storagemodels.Document{
			"a": {"team": "red", "rank": 3},
			"b": {"team": "red", "rank": 1},
			"c": {"team": "blue", "rank": 2},
			"d": {"team": "red"},
		} {
			require.NoError(t, client.Set(ctx, coll, id, doc))
		}

		n, err := client.Count(ctx, coll)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		n, err = client.Count(ctx, fresh())
		require.NoError(t, err)
		assert.Zero(t, n)

		snaps, err := client.Query(ctx, coll, storagemodels.Query{
			Filters: []storagemodels.Constraint{storagemodels.Where("team", storagemodels.OpEqual, "red")},
			OrderBy: []storagemodels.Order{{Field: "rank", Direction: storagemodels.Desc}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, snapshotIDs(snaps))

		snaps, err = client.Query(ctx, coll, storagemodels.Query{
			OrderBy:    []storagemodels.Order{{Field: storagemodels.DocumentID}},
			StartAfter: "a",
			Limit:      2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, snapshotIDs(snaps))

		_, err = client.Query(ctx, coll, storagemodels.Query{
			Filters: []storagemodels.Constraint{storagemodels.Where("team", storagemodels.OpIn, "red")},
		})
		assert.True(t, errors.IsValidationError(err), "got %v", err)
	})
}

// AssertRecent checks that v is a timestamp within a minute of now.
func AssertRecent(t *testing.T, v any) {
	t.Helper()
	ts, ok := v.(time.Time)
	if !ok {
		ts, ok = registry.ConvertTimestamp(v)
	}
	require.True(t, ok, "expected a timestamp, got %T", v)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func asPlainMap(v any) map[string]any {
	switch tv := v.(type) {
	case map[string]any:
		return tv
	case storagemodels.Document:
		return tv
	}
	return nil
}

func snapshotIDs(snaps []storagemodels.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID
	}
	return out
}
