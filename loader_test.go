/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/config"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/datastore/sqlite"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

func TestNewLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		client, err := NewLoader(cfg, zerolog.Nop())(ctx)
		require.NoError(t, err)
		assert.IsType(t, &mock.DataStore{}, client)
		require.NoError(t, client.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = config.BackendSQLite
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "docs.db")

		client, err := NewLoader(cfg, zerolog.Nop())(ctx)
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Store{}, client)
		require.NoError(t, client.Close())
	})

	t.Run("metrics wraps the backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Metrics.Enabled = true

		client, err := NewLoader(cfg, zerolog.Nop())(ctx)
		require.NoError(t, err)
		_, isMock := client.(*mock.DataStore)
		assert.False(t, isMock)

		_, found, err := client.Get(ctx, "users", "u1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = "postgres"
		_, err := NewLoader(cfg, zerolog.Nop())(ctx)
		assert.ErrorContains(t, err, "postgres")
	})
}

func TestNewHandleFromConfig(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Backend = config.BackendSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "handle.db")

	h := NewHandleFromConfig(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = h.Close() })

	users, err := NewCollection("users", WithHandle(h))
	require.NoError(t, err)
	_, err = users.CreateWithID(ctx, "u1", storagemodels.Document{"name": "Ada"})
	require.NoError(t, err)

	doc, err := users.Read(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc["name"])
	assert.Equal(t, 1, h.Attempts())

	t.Run("sticky failure from config", func(t *testing.T) {
		bad := config.Default()
		bad.Backend = "unknown"
		bad.Handle.StickyFailure = true
		h := NewHandleFromConfig(bad, zerolog.Nop())

		_, err := h.Get(ctx)
		assert.True(t, errors.IsInitError(err))
		_, err = h.Get(ctx)
		assert.True(t, errors.IsInitError(err))
		assert.Equal(t, 1, h.Attempts())
	})
}
