/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/suparena/collectionstore/datastore/datastoretest"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestMockDataStoreContract(t *testing.T) {
	datastoretest.Run(t, mock.New())
}

func TestMockDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		mockStore := mock.New().
			WithClock(func() time.Time { return now }).
			WithIDFunc(func() string { return "fixed" })

		id, err := mockStore.Add(ctx, "users", storagemodels.Document{
			"name":    "Test",
			"created": storagemodels.ServerTimestamp,
		})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if id != "fixed" {
			t.Fatalf("Expected id fixed, got %s", id)
		}

		doc, found, err := mockStore.Get(ctx, "users", "fixed")
		if err != nil || !found {
			t.Fatalf("Get failed: found=%v err=%v", found, err)
		}
		ts, ok := doc["created"].(*timestamppb.Timestamp)
		if !ok || !ts.AsTime().Equal(now) {
			t.Fatalf("Expected server timestamp %v, got %#v", now, doc["created"])
		}

		// Adding again with the same generated id must not overwrite
		_, err = mockStore.Add(ctx, "users", storagemodels.Document{"name": "Other"})
		if !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists error, got: %v", err)
		}
	})

	t.Run("ReturnedDocumentsAreCopies", func(t *testing.T) {
		mockStore := mock.New()
		if err := mockStore.Set(ctx, "c", "1", storagemodels.Document{"tags": []any{"a"}}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		doc, _, _ := mockStore.Get(ctx, "c", "1")
		doc["tags"].([]any)[0] = "mutated"

		again, _, _ := mockStore.Get(ctx, "c", "1")
		if again["tags"].([]any)[0] != "a" {
			t.Fatalf("Stored document was mutated through a returned copy")
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		mockStore := mock.New()

		setErr := errors.NewValidationError("name", "required")
		mockStore.WithSetError(setErr)
		if err := mockStore.Set(ctx, "c", "1", storagemodels.Document{}); err != setErr {
			t.Fatalf("Expected set error, got: %v", err)
		}

		deleteErr := errors.NewConditionFailedError("delete", "version mismatch")
		mockStore.WithDeleteError(deleteErr)
		if err := mockStore.Delete(ctx, "c", "1"); err != deleteErr {
			t.Fatalf("Expected delete error, got: %v", err)
		}

		mockStore.FailOn(mock.OpDelete, nil)
		if err := mockStore.Delete(ctx, "c", "1"); err != nil {
			t.Fatalf("Expected delete to succeed after clearing, got: %v", err)
		}

		if mockStore.Calls(mock.OpDelete) != 2 {
			t.Fatalf("Expected 2 delete calls, got %d", mockStore.Calls(mock.OpDelete))
		}
	})

	t.Run("Closed", func(t *testing.T) {
		mockStore := mock.New()
		_ = mockStore.Close()
		if _, err := mockStore.Count(ctx, "c"); err != errors.ErrHandleClosed {
			t.Fatalf("Expected closed error, got: %v", err)
		}
	})

	t.Run("HelperMethods", func(t *testing.T) {
		mockStore := mock.New()

		mockStore.SetData("users", map[string]storagemodels.Document{
			"1": {"name": "One"},
			"2": {"name": "Two"},
		})

		n, _ := mockStore.Count(ctx, "users")
		if n != 2 {
			t.Fatalf("Expected count 2, got %d", n)
		}

		data := mockStore.GetData("users")
		if len(data) != 2 {
			t.Fatalf("Expected 2 items in data, got %d", len(data))
		}

		mockStore.Clear()
		n, _ = mockStore.Count(ctx, "users")
		if n != 0 {
			t.Fatalf("Expected count 0 after clear, got %d", n)
		}
	})
}
