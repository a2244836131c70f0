/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/storagemodels"
)

// Test types
type testUser struct {
	ID      string    `doc:"id"`
	Name    string    `doc:"name"`
	Level   int       `doc:"level"`
	Tags    []string  `doc:"tags"`
	Created time.Time `doc:"createTimestamp"`
	Updated time.Time `doc:"updateTimestamp"`
}

type testProduct struct {
	ID    string  `doc:"id"`
	Name  string  `doc:"name"`
	Price float64 `doc:"price"`
}

func TestTypedCollection(t *testing.T) {
	ctx := context.Background()
	coll, _ := newTestCollection(t, "users")
	users := NewTypedCollection[testUser](coll)
	assert.Same(t, coll, users.Collection())

	_, err := coll.CreateWithID(ctx, "u1", storagemodels.Document{
		"name":  "Ada",
		"level": 3,
		"tags":  []any{"math", "engines"},
	})
	require.NoError(t, err)
	_, err = coll.CreateWithID(ctx, "u2", storagemodels.Document{"name": "Grace", "level": 5})
	require.NoError(t, err)

	t.Run("Read", func(t *testing.T) {
		u, err := users.Read(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "u1", u.ID)
		assert.Equal(t, "Ada", u.Name)
		assert.Equal(t, 3, u.Level)
		assert.Equal(t, []string{"math", "engines"}, u.Tags)
		assert.False(t, u.Created.IsZero())
		assert.Equal(t, u.Created, u.Updated)

		missing, err := users.Read(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ReadAll", func(t *testing.T) {
		all, err := users.ReadAll(ctx, storagemodels.Where("level", storagemodels.OpGreater, 4))
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Grace", all[0].Name)
	})

	t.Run("ReadSingle", func(t *testing.T) {
		latest, err := users.ReadSingle(ctx, 1)
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, "u2", latest[0].ID)
	})

	t.Run("MultipleTypes", func(t *testing.T) {
		productsColl, store := newTestCollection(t, "products")
		store.SetData("products", map[string]storagemodels.Document{
			"p1": {"name": "Widget", "price": 9.5},
		})
		products := NewTypedCollection[testProduct](productsColl)

		p, err := products.Read(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, testProduct{ID: "p1", Name: "Widget", Price: 9.5}, *p)
	})
}

func TestDecode(t *testing.T) {
	when := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	u, err := Decode[testUser](storagemodels.Document{
		"id":              "u9",
		"createTimestamp": strfmt.DateTime(when),
		"updateTimestamp": when.Format(time.RFC3339Nano),
		"extra":           "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
	assert.True(t, when.Equal(u.Created))
	assert.True(t, when.Equal(u.Updated))

	_, err = Decode[testUser](storagemodels.Document{"level": []any{"not", "a", "number"}})
	assert.Error(t, err)
}
