/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/errors"
)

func TestRegistry(t *testing.T) {
	handle := NewStaticHandle(mock.New())
	reg := NewRegistry(WithHandle(handle))

	t.Run("BasicOperations", func(t *testing.T) {
		users, err := NewCollection("users", WithHandle(handle))
		require.NoError(t, err)
		require.NoError(t, reg.Register(users))

		got, err := reg.Get("users")
		require.NoError(t, err)
		assert.Same(t, users, got)

		assert.Error(t, reg.Register(users), "duplicate registration")

		require.NoError(t, reg.Remove("users"))
		_, err = reg.Get("users")
		assert.Error(t, err)
		assert.Error(t, reg.Remove("users"))
	})

	t.Run("GetOrCreate", func(t *testing.T) {
		a, err := reg.GetOrCreate("orgs/o1/members")
		require.NoError(t, err)
		b, err := reg.GetOrCreate("orgs/o1/members")
		require.NoError(t, err)
		assert.Same(t, a, b)

		_, err = reg.GetOrCreate("orgs/o1")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("List", func(t *testing.T) {
		_, err := reg.GetOrCreate("b")
		require.NoError(t, err)
		_, err = reg.GetOrCreate("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "orgs/o1/members"}, reg.List())
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		var wg sync.WaitGroup
		results := make([]*Collection, 50)
		for i := 0; i < len(results); i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				coll, err := reg.GetOrCreate(fmt.Sprintf("shared%d", i%2))
				if err == nil {
					results[i] = coll
				}
			}(i)
		}
		wg.Wait()

		for i := 2; i < len(results); i++ {
			assert.Same(t, results[i%2], results[i])
		}
	})
}
