/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/errors"
)

func TestParseFieldPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    FieldPath
		wantErr bool
	}{
		{name: "single", path: "name", want: FieldPath{"name"}},
		{name: "nested", path: "settings.theme", want: FieldPath{"settings", "theme"}},
		{name: "empty", path: "", wantErr: true},
		{name: "leading dot", path: ".a", wantErr: true},
		{name: "double dot", path: "a..b", wantErr: true},
		{name: "trailing dot", path: "a.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.path, got.String())
		})
	}
}

func TestValidateUpdates(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := ValidateUpdates([]Update{
			{Path: FieldPath{"a", "b"}, Value: 1},
			{Path: FieldPath{"a", "c"}, Value: 2},
			{Path: FieldPath{FieldUpdateTimestamp}, Value: ServerTimestamp},
		})
		assert.NoError(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.True(t, errors.IsValidationError(ValidateUpdates(nil)))
	})

	t.Run("PrefixConflict", func(t *testing.T) {
		err := ValidateUpdates([]Update{
			{Path: FieldPath{"a"}, Value: 1},
			{Path: FieldPath{"a", "b"}, Value: 2},
		})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("EmptySegment", func(t *testing.T) {
		err := ValidateUpdates([]Update{{Path: FieldPath{"a", ""}, Value: 1}})
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestConstraintValidate(t *testing.T) {
	assert.NoError(t, Where("name", OpEqual, "Alice").Validate())
	assert.NoError(t, Where("tags", OpArrayContainsAny, []any{"a", "b"}).Validate())
	assert.NoError(t, Where(DocumentID, OpGreater, "u1").Validate())

	assert.True(t, errors.IsValidationError(Where("name", "~=", "x").Validate()))
	assert.True(t, errors.IsValidationError(Where("", OpEqual, "x").Validate()))
	assert.True(t, errors.IsValidationError(Where("role", OpIn, "admin").Validate()))
}

func TestQueryValidate(t *testing.T) {
	q := Query{StartAfter: "u1"}
	assert.True(t, errors.IsValidationError(q.Validate()))

	q.OrderBy = []Order{{Field: DocumentID}}
	assert.NoError(t, q.Validate())

	q.Limit = -1
	assert.True(t, errors.IsValidationError(q.Validate()))
}

func TestTransforms(t *testing.T) {
	assert.True(t, IsTransform(ServerTimestamp))
	assert.True(t, IsTransform(ArrayUnion("x")))
	assert.True(t, IsTransform(ArrayRemove("x")))
	assert.False(t, IsTransform("x"))

	u := ArrayUnion(1, "two")
	assert.Equal(t, []any{1, "two"}, u.Elems)
}

func TestStreamOptions(t *testing.T) {
	opts := DefaultStreamOptions()
	for _, o := range []StreamOption{WithBufferSize(5), WithPageSize(2)} {
		o(&opts)
	}
	assert.Equal(t, 5, opts.BufferSize)
	assert.Equal(t, 2, opts.PageSize)
	assert.Nil(t, opts.ProgressHandler)
}
