/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/storagemodels"
)

// keepOpen survives the handle being closed after every command.
type keepOpen struct {
	datastore.Client
}

func (keepOpen) Close() error { return nil }

func run(t *testing.T, store *mock.DataStore, args ...string) (string, error) {
	t.Helper()
	cl := &Commandline{loader: func(context.Context) (datastore.Client, error) {
		return keepOpen{store}, nil
	}}
	cmd := cl.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "disabled"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := (&Commandline{}).NewRootCmd()
	require.IsType(t, &cobra.Command{}, cmd)
	for _, name := range []string{"get", "list", "count", "latest", "put", "patch", "set-field", "array-add", "array-remove", "delete", "purge", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestCommands(t *testing.T) {
	chdir(t, t.TempDir())
	store := mock.New()

	out, err := run(t, store, "put", "--id", "u1", `{"name":"Ada","level":3,"roles":["reader"]}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "u1"`)

	_, err = run(t, store, "put", `{"name":"Grace","level":5}`)
	require.NoError(t, err)

	out, err = run(t, store, "count")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 2}`, out)

	out, err = run(t, store, "list", "--where", "level >= 4")
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Grace", docs[0]["name"])

	_, err = run(t, store, "patch", "u1", `{"city":"London"}`)
	require.NoError(t, err)
	_, err = run(t, store, "set-field", "u1", "settings.theme", `"dark"`)
	require.NoError(t, err)
	_, err = run(t, store, "array-add", "u1", "roles", `"admin"`)
	require.NoError(t, err)
	_, err = run(t, store, "array-remove", "u1", "roles", "reader")
	require.NoError(t, err)

	out, err = run(t, store, "get", "u1")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "London", doc["city"])
	assert.Equal(t, map[string]any{"theme": "dark"}, doc["settings"])
	assert.Equal(t, []any{"admin"}, doc["roles"])
	assert.Contains(t, doc, storagemodels.FieldCreateTimestamp)

	out, err = run(t, store, "latest", "-n", "5")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 2)

	_, err = run(t, store, "delete", "u1")
	require.NoError(t, err)
	_, err = run(t, store, "get", "u1")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, store, "purge")
	assert.Error(t, err)
	out, err = run(t, store, "purge", "--yes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted": 1}`, out)

	out, err = run(t, store, "latest")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestCommandErrors(t *testing.T) {
	chdir(t, t.TempDir())
	store := mock.New()

	_, err := run(t, store, "put", `not json`)
	assert.ErrorContains(t, err, "invalid JSON object")

	_, err = run(t, store, "list", "--where", "level")
	assert.ErrorContains(t, err, "invalid filter")

	_, err = run(t, store, "--collection", "users/u1", "count")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, mock.New(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestParseWhere(t *testing.T) {
	tests := []struct {
		expr string
		want storagemodels.Constraint
	}{
		{`status == "open"`, storagemodels.Where("status", storagemodels.OpEqual, "open")},
		{`priority >= 2`, storagemodels.Where("priority", storagemodels.OpGreaterOrEqual, int64(2))},
		{`score < 1.5`, storagemodels.Where("score", storagemodels.OpLess, 1.5)},
		{`done != true`, storagemodels.Where("done", storagemodels.OpNotEqual, true)},
		{`owner.name == ada`, storagemodels.Where("owner.name", storagemodels.OpEqual, "ada")},
		{`tags array-contains "urgent"`, storagemodels.Where("tags", storagemodels.OpArrayContains, "urgent")},
		{`tags array-contains-any ["a","b"]`, storagemodels.Where("tags", storagemodels.OpArrayContainsAny, []any{"a", "b"})},
		{`state in ["x","y"]`, storagemodels.Where("state", storagemodels.OpIn, []any{"x", "y"})},
		{`state not-in [1]`, storagemodels.Where("state", storagemodels.OpNotIn, []any{int64(1)})},
		{`title == "sign in now"`, storagemodels.Where("title", storagemodels.OpEqual, "sign in now")},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "status", "== open", "status ==", `state in "x"`} {
		_, err := ParseWhere(bad)
		assert.Error(t, err, bad)
	}
}
