/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/collectionstore/storagemodels"
)

// Client is the capability the collection layer consumes from a document database.
type Client interface {
	// Get returns the document stored under id, and whether it exists.
	Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error)

	// Add stores data under a generated id and returns that id.
	Add(ctx context.Context, collection string, data storagemodels.Document) (string, error)

	// Set replaces the document stored under id, creating it if needed.
	Set(ctx context.Context, collection, id string, data storagemodels.Document) error

	// Update applies field-path updates to an existing document.
	// A missing document yields an errors.NotFoundError.
	Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error

	// Delete removes the document stored under id.
	Delete(ctx context.Context, collection, id string) error

	// Query returns the documents matching q.
	Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection string) (int64, error)

	// Close releases the underlying connection.
	Close() error
}
