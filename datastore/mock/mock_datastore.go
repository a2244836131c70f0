/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory datastore.Client for testing
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Operation names used for error injection and call counting.
const (
	OpGet    = "get"
	OpAdd    = "add"
	OpSet    = "set"
	OpUpdate = "update"
	OpDelete = "delete"
	OpQuery  = "query"
	OpCount  = "count"
)

// DataStore is an in-memory client with Firestore semantics.
// Server timestamps are stored as *timestamppb.Timestamp.
type DataStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]storagemodels.Document
	errs   map[string]error
	calls  map[string]int
	clock  func() time.Time
	newID  func() string
	closed bool
}

// New creates a new mock DataStore
func New() *DataStore {
	return &DataStore{
		data:  make(map[string]map[string]storagemodels.Document),
		errs:  make(map[string]error),
		calls: make(map[string]int),
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// WithClock sets the time source used for server timestamps
func (m *DataStore) WithClock(clock func() time.Time) *DataStore {
	m.clock = clock
	return m
}

// WithIDFunc sets the generator used by Add
func (m *DataStore) WithIDFunc(f func() string) *DataStore {
	m.newID = f
	return m
}

// FailOn makes the named operation return err until cleared with a nil err
func (m *DataStore) FailOn(op string, err error) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
	} else {
		m.errs[op] = err
	}
	return m
}

// WithGetError makes Get operations return an error
func (m *DataStore) WithGetError(err error) *DataStore { return m.FailOn(OpGet, err) }

// WithAddError makes Add operations return an error
func (m *DataStore) WithAddError(err error) *DataStore { return m.FailOn(OpAdd, err) }

// WithSetError makes Set operations return an error
func (m *DataStore) WithSetError(err error) *DataStore { return m.FailOn(OpSet, err) }

// WithUpdateError makes Update operations return an error
func (m *DataStore) WithUpdateError(err error) *DataStore { return m.FailOn(OpUpdate, err) }

// WithDeleteError makes Delete operations return an error
func (m *DataStore) WithDeleteError(err error) *DataStore { return m.FailOn(OpDelete, err) }

// WithQueryError makes Query operations return an error
func (m *DataStore) WithQueryError(err error) *DataStore { return m.FailOn(OpQuery, err) }

// WithCountError makes Count operations return an error
func (m *DataStore) WithCountError(err error) *DataStore { return m.FailOn(OpCount, err) }

// begin records a call and returns the injected error, if any. Callers hold m.mu.
func (m *DataStore) begin(ctx context.Context, op string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed {
		return errors.ErrHandleClosed
	}
	return m.errs[op]
}

func (m *DataStore) stamp() any {
	return timestamppb.New(m.clock())
}

// Get retrieves a document by id
func (m *DataStore) Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpGet); err != nil {
		return nil, false, err
	}

	doc, ok := m.data[collection][id]
	if !ok {
		return nil, false, nil
	}
	return query.CopyDocument(doc), true, nil
}

// Add stores data under a generated id
func (m *DataStore) Add(ctx context.Context, collection string, data storagemodels.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpAdd); err != nil {
		return "", err
	}

	stored, err := query.PrepareWrite(data, query.Once(m.stamp))
	if err != nil {
		return "", err
	}
	id := m.newID()
	if _, exists := m.data[collection][id]; exists {
		return "", errors.NewAlreadyExistsError(collection, id)
	}
	m.put(collection, id, stored)
	return id, nil
}

// Set replaces a document, creating it if needed
func (m *DataStore) Set(ctx context.Context, collection, id string, data storagemodels.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpSet); err != nil {
		return err
	}
	if id == "" {
		return errors.NewValidationError("id", "must not be empty")
	}

	stored, err := query.PrepareWrite(data, query.Once(m.stamp))
	if err != nil {
		return err
	}
	m.put(collection, id, stored)
	return nil
}

// Update applies field-path updates to an existing document
func (m *DataStore) Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpUpdate); err != nil {
		return err
	}

	doc, ok := m.data[collection][id]
	if !ok {
		return errors.NewNotFoundError(collection, id)
	}
	updated, err := query.ApplyUpdates(doc, updates, query.Once(m.stamp))
	if err != nil {
		return err
	}
	m.put(collection, id, updated)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (m *DataStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpDelete); err != nil {
		return err
	}

	delete(m.data[collection], id)
	return nil
}

// Query returns the documents matching q
func (m *DataStore) Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpQuery); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snaps := make([]storagemodels.Snapshot, 0, len(m.data[collection]))
	for id, doc := range m.data[collection] {
		snaps = append(snaps, storagemodels.Snapshot{ID: id, Data: query.CopyDocument(doc)})
	}
	return query.Run(snaps, q), nil
}

// Count returns the number of documents in a collection
func (m *DataStore) Count(ctx context.Context, collection string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpCount); err != nil {
		return 0, err
	}
	return int64(len(m.data[collection])), nil
}

// Close marks the store closed; later calls fail with errors.ErrHandleClosed
func (m *DataStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *DataStore) put(collection, id string, doc storagemodels.Document) {
	docs, ok := m.data[collection]
	if !ok {
		docs = make(map[string]storagemodels.Document)
		m.data[collection] = docs
	}
	docs[id] = doc
}

// Helper methods for testing

// SetData replaces the contents of a collection (for testing)
func (m *DataStore) SetData(collection string, docs map[string]storagemodels.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]storagemodels.Document, len(docs))
	for id, doc := range docs {
		copied[id] = query.CopyDocument(doc)
	}
	m.data[collection] = copied
}

// GetData returns a copy of a collection's documents (for testing)
func (m *DataStore) GetData(collection string) map[string]storagemodels.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]storagemodels.Document, len(m.data[collection]))
	for id, doc := range m.data[collection] {
		result[id] = query.CopyDocument(doc)
	}
	return result
}

// Calls returns how many times an operation was invoked
func (m *DataStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Clear removes all data and resets call counters
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]map[string]storagemodels.Document)
	m.calls = make(map[string]int)
}
