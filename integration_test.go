//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore"
	"github.com/suparena/collectionstore/config"
	"github.com/suparena/collectionstore/storagemodels"
)

// Test entities
type IntegrationUser struct {
	ID              string    `doc:"id"`
	Email           string    `doc:"email"`
	Name            string    `doc:"name"`
	Roles           []string  `doc:"roles"`
	CreateTimestamp time.Time `doc:"createTimestamp"`
	UpdateTimestamp time.Time `doc:"updateTimestamp"`
}

// setupCollection opens the backend named by COLLECTIONSTORE_* variables, e.g.
//
//	COLLECTIONSTORE_BACKEND=dynamodb COLLECTIONSTORE_DYNAMODB_REGION=us-east-1 \
//	COLLECTIONSTORE_DYNAMODB_TABLE=docs go test -tags=integration .
func setupCollection(t *testing.T) *collectionstore.Collection {
	if os.Getenv(config.EnvPrefix+"BACKEND") == "" {
		t.Skip(config.EnvPrefix + "BACKEND not set, skipping integration test")
	}
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	handle := collectionstore.NewHandleFromConfig(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = handle.Close() })

	coll, err := collectionstore.NewCollection(fmt.Sprintf("it_%d", time.Now().UnixNano()), collectionstore.WithHandle(handle))
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	t.Cleanup(func() { _, _ = coll.DeleteAll(context.Background()) })
	return coll
}

func TestIntegrationBasicOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	coll := setupCollection(t)
	users := collectionstore.NewTypedCollection[IntegrationUser](coll)

	created, err := coll.CreateWithID(ctx, "u1", storagemodels.Document{
		"email": "test@example.com",
		"name":  "Test User",
		"roles": []any{"reader"},
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if created["id"] != "u1" {
		t.Errorf("Expected id u1, got %v", created["id"])
	}

	if err := coll.UpdateArrayInside(ctx, "u1", "roles", "admin"); err != nil {
		t.Fatalf("Failed to add role: %v", err)
	}
	if err := coll.UpdateInside(ctx, "u1", "name", "Updated Name"); err != nil {
		t.Fatalf("Failed to update name: %v", err)
	}

	retrieved, err := users.Read(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to read user: %v", err)
	}
	if retrieved == nil || retrieved.Name != "Updated Name" || len(retrieved.Roles) != 2 {
		t.Errorf("Retrieved user doesn't match: got %+v", retrieved)
	}
	if retrieved != nil && retrieved.CreateTimestamp.IsZero() {
		t.Error("createTimestamp was not set")
	}

	if err := coll.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	gone, err := coll.Read(ctx, "u1")
	if err != nil || gone != nil {
		t.Errorf("Expected missing user, got %v, %v", gone, err)
	}
}

func TestIntegrationQueryAndStream(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	coll := setupCollection(t)

	for i := 0; i < 10; i++ {
		status := "pending"
		if i%3 == 0 {
			status = "completed"
		}
		if _, err := coll.Create(ctx, storagemodels.Document{"seq": i, "status": status}); err != nil {
			t.Fatalf("Failed to create order: %v", err)
		}
	}

	completed, err := coll.ReadAll(ctx, storagemodels.Where("status", storagemodels.OpEqual, "completed"))
	if err != nil {
		t.Fatalf("Failed to query orders: %v", err)
	}
	if len(completed) != 4 {
		t.Errorf("Expected 4 completed orders, got %d", len(completed))
	}

	size, err := coll.GetSize(ctx)
	if err != nil || size != 10 {
		t.Errorf("Expected size 10, got %d (%v)", size, err)
	}

	var progressCalled int
	count := 0
	for result := range coll.Stream(ctx, nil,
		storagemodels.WithPageSize(3),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progressCalled++
			t.Logf("Progress: %d items processed", p.ItemsProcessed)
		}),
	) {
		if result.Error != nil {
			t.Errorf("Stream error: %v", result.Error)
			continue
		}
		count++
	}
	if count != 10 {
		t.Errorf("Expected 10 streamed documents, got %d", count)
	}
	if progressCalled == 0 {
		t.Error("Progress handler was not called")
	}

	latest, err := coll.ReadSingle(ctx, 1)
	if err != nil || len(latest) != 1 {
		t.Fatalf("Failed to read latest: %v", err)
	}
}
