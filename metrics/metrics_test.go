/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

func TestInstrumentWith(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	store := mock.New()
	client := InstrumentWith(store, m)

	require.NoError(t, client.Set(ctx, "users", "u1", storagemodels.Document{"name": "Alice"}))
	_, found, err := client.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.True(t, found)

	err = client.Update(ctx, "users", "ghost", []storagemodels.Update{
		{Path: storagemodels.FieldPath{"name"}, Value: "Bob"},
	})
	assert.True(t, errors.IsNotFound(err))

	store.WithCountError(assert.AnError)
	_, err = client.Count(ctx, "users")
	assert.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("set", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("get", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("update", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("count", ResultError)))
	assert.Equal(t, 4, testutil.CollectAndCount(m.seconds))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ResultOK, classify(nil))
	assert.Equal(t, ResultInvalid, classify(errors.NewValidationError("f", "bad")))
	assert.Equal(t, ResultConflict, classify(errors.NewConditionFailedError("update", "rev")))
	assert.Equal(t, ResultConflict, classify(errors.NewAlreadyExistsError("c", "1")))
	assert.Equal(t, ResultError, classify(assert.AnError))
}
