/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/storagemodels"
)

func seedDocs(store *mock.DataStore, collection string, n int) {
	docs := make(map[string]storagemodels.Document, n)
	for i := 0; i < n; i++ {
		docs[fmt.Sprintf("doc%03d", i)] = storagemodels.Document{"n": int64(i), "even": i%2 == 0}
	}
	store.SetData(collection, docs)
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	t.Run("visits every document once across pages", func(t *testing.T) {
		coll, store := newTestCollection(t, "items")
		seedDocs(store, "items", 25)

		var progress []storagemodels.StreamProgress
		seen := map[string]int{}
		var last storagemodels.StreamResult
		for r := range coll.Stream(ctx, nil,
			storagemodels.WithPageSize(10),
			storagemodels.WithBufferSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = append(progress, p) }),
		) {
			require.NoError(t, r.Error)
			seen[r.Document[storagemodels.FieldID].(string)]++
			last = r
		}

		assert.Len(t, seen, 25)
		for id, n := range seen {
			assert.Equal(t, 1, n, id)
		}
		assert.Equal(t, int64(24), last.Meta.Index)
		assert.Equal(t, 3, last.Meta.PageNumber)
		require.Len(t, progress, 3)
		assert.Equal(t, int64(25), progress[2].ItemsProcessed)
		assert.Equal(t, "doc024", progress[2].LastID)
	})

	t.Run("exact page multiple", func(t *testing.T) {
		coll, store := newTestCollection(t, "items")
		seedDocs(store, "items", 20)

		count := 0
		for r := range coll.Stream(ctx, nil, storagemodels.WithPageSize(10)) {
			require.NoError(t, r.Error)
			count++
		}
		assert.Equal(t, 20, count)
		assert.Equal(t, 3, store.Calls(mock.OpQuery))
	})

	t.Run("filters", func(t *testing.T) {
		coll, store := newTestCollection(t, "items")
		seedDocs(store, "items", 10)

		count := 0
		for r := range coll.Stream(ctx, []storagemodels.Constraint{
			storagemodels.Where("even", storagemodels.OpEqual, true),
		}, storagemodels.WithPageSize(2)) {
			require.NoError(t, r.Error)
			assert.Equal(t, true, r.Document["even"])
			count++
		}
		assert.Equal(t, 5, count)
	})

	t.Run("page error ends the stream", func(t *testing.T) {
		coll, store := newTestCollection(t, "items")
		seedDocs(store, "items", 5)
		store.WithQueryError(stderrors.New("backend unavailable"))

		var results []storagemodels.StreamResult
		for r := range coll.Stream(ctx, nil) {
			results = append(results, r)
		}
		require.Len(t, results, 1)
		assert.ErrorContains(t, results[0].Error, "backend unavailable")
	})

	t.Run("cancellation closes the channel", func(t *testing.T) {
		coll, store := newTestCollection(t, "items")
		seedDocs(store, "items", 50)

		cctx, cancel := context.WithCancel(ctx)
		ch := coll.Stream(cctx, nil, storagemodels.WithPageSize(5), storagemodels.WithBufferSize(0))
		<-ch
		cancel()

		received := 1
		for range ch {
			received++
		}
		assert.Less(t, received, 50)
	})
}
