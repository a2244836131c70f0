/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// Collection reads and writes the documents of one collection path.
// It is safe for concurrent use.
type Collection struct {
	path   string
	handle *ClientHandle
	logger zerolog.Logger
	clock  func() time.Time
}

// Option configures a Collection.
type Option func(*Collection)

// WithHandle sets the client handle. Defaults to DefaultHandle().
func WithHandle(h *ClientHandle) Option {
	return func(c *Collection) {
		c.handle = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithClock sets the clock used for the createTimestamp returned by Create.
func WithClock(clock func() time.Time) Option {
	return func(c *Collection) {
		c.clock = clock
	}
}

// NewCollection returns an accessor for path, e.g. "users" or "orgs/o1/members".
func NewCollection(path string, opts ...Option) (*Collection, error) {
	if err := validateCollectionPath(path); err != nil {
		return nil, err
	}
	c := &Collection{
		path:   path,
		logger: zerolog.Nop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handle == nil {
		c.handle = DefaultHandle()
	}
	c.logger = c.logger.With().Str("collection", path).Logger()
	return c, nil
}

// Collection paths alternate collection and document ids, ending on a collection.
func validateCollectionPath(path string) error {
	if path == "" {
		return errors.NewValidationError("path", "collection path must not be empty")
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return errors.NewValidationError("path", fmt.Sprintf("empty segment in collection path %q", path))
		}
	}
	if len(segments)%2 == 0 {
		return errors.NewValidationError("path", fmt.Sprintf("%q names a document, not a collection", path))
	}
	return nil
}

// Path returns the collection path.
func (c *Collection) Path() string {
	return c.path
}

func (c *Collection) client(ctx context.Context) (datastore.Client, error) {
	return c.handle.Get(ctx)
}

// Create stores data under a generated id, stamping createTimestamp and
// updateTimestamp with the server time. The returned document holds the id,
// the input fields and an approximate createTimestamp from the local clock.
func (c *Collection) Create(ctx context.Context, data storagemodels.Document) (storagemodels.Document, error) {
	return c.create(ctx, "", data)
}

// CreateWithID stores data under id, replacing any existing document.
func (c *Collection) CreateWithID(ctx context.Context, id string, data storagemodels.Document) (storagemodels.Document, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "must not be empty")
	}
	return c.create(ctx, id, data)
}

func (c *Collection) create(ctx context.Context, id string, data storagemodels.Document) (storagemodels.Document, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	write := make(storagemodels.Document, len(data)+2)
	for k, v := range data {
		write[k] = v
	}
	write[storagemodels.FieldCreateTimestamp] = storagemodels.ServerTimestamp
	write[storagemodels.FieldUpdateTimestamp] = storagemodels.ServerTimestamp

	if id == "" {
		id, err = client.Add(ctx, c.path, write)
	} else {
		err = client.Set(ctx, c.path, id, write)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create document in %s: %w", c.path, err)
	}
	c.logger.Debug().Str("id", id).Msg("document created")

	result := make(storagemodels.Document, len(data)+2)
	for k, v := range data {
		result[k] = v
	}
	result[storagemodels.FieldID] = id
	result[storagemodels.FieldCreateTimestamp] = c.clock()
	return result, nil
}

// Read returns the document with its id, or nil when it does not exist.
func (c *Collection) Read(ctx context.Context, id string) (storagemodels.Document, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "must not be empty")
	}
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	data, found, err := client.Get(ctx, c.path, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", c.path, id, err)
	}
	if !found {
		return nil, nil
	}
	return withID(id, data), nil
}

// withID merges the id into data and normalizes timestamps. The id wins over a stored "id" field.
func withID(id string, data storagemodels.Document) storagemodels.Document {
	doc := make(storagemodels.Document, len(data)+1)
	for k, v := range data {
		doc[k] = v
	}
	doc[storagemodels.FieldID] = id
	NormalizeTimestamps(doc)
	return doc
}

// ReadAll returns every document matching all constraints.
func (c *Collection) ReadAll(ctx context.Context, constraints ...storagemodels.Constraint) ([]storagemodels.Document, error) {
	for _, cons := range constraints {
		if err := cons.Validate(); err != nil {
			return nil, err
		}
	}
	snaps, err := c.query(ctx, storagemodels.Query{Filters: constraints})
	if err != nil {
		return nil, err
	}

	docs := make([]storagemodels.Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, withID(s.ID, s.Data))
	}
	return docs, nil
}

func (c *Collection) query(ctx context.Context, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	snaps, err := client.Query(ctx, c.path, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.path, err)
	}
	return snaps, nil
}

// GetSize returns the number of documents in the collection; 0 when empty.
func (c *Collection) GetSize(ctx context.Context) (int64, error) {
	client, err := c.client(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.Count(ctx, c.path)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.path, err)
	}
	return n, nil
}

// ReadSingle returns up to limit documents, newest createTimestamp first.
// It returns a nil slice when the collection has none.
func (c *Collection) ReadSingle(ctx context.Context, limit int) ([]storagemodels.Document, error) {
	if limit <= 0 {
		return nil, errors.NewValidationError("limit", "must be positive")
	}
	snaps, err := c.query(ctx, storagemodels.Query{
		OrderBy: []storagemodels.Order{{Field: storagemodels.FieldCreateTimestamp, Direction: storagemodels.Desc}},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	var docs []storagemodels.Document
	for _, s := range snaps {
		docs = append(docs, withID(s.ID, s.Data))
	}
	return docs, nil
}

// Update stores a copy of data under the "data" field of the document named by
// data["id"] and refreshes updateTimestamp. Other top-level fields are untouched.
func (c *Collection) Update(ctx context.Context, data storagemodels.Document) (string, error) {
	id, _ := data[storagemodels.FieldID].(string)
	if id == "" {
		return "", errors.NewValidationError(storagemodels.FieldID, "must be a non-empty string")
	}

	err := c.update(ctx, id, []storagemodels.Update{
		{Path: storagemodels.FieldPath{"data"}, Value: query.CopyDocument(data)},
		{Path: storagemodels.FieldPath{storagemodels.FieldUpdateTimestamp}, Value: storagemodels.ServerTimestamp},
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Patch sets top-level fields and refreshes updateTimestamp.
func (c *Collection) Patch(ctx context.Context, id string, fields storagemodels.Document) error {
	if len(fields) == 0 {
		return errors.NewValidationError("fields", "must not be empty")
	}
	updates := make([]storagemodels.Update, 0, len(fields)+1)
	for k, v := range fields {
		if k == storagemodels.FieldUpdateTimestamp {
			continue
		}
		updates = append(updates, storagemodels.Update{Path: storagemodels.FieldPath{k}, Value: v})
	}
	updates = append(updates, storagemodels.Update{
		Path:  storagemodels.FieldPath{storagemodels.FieldUpdateTimestamp},
		Value: storagemodels.ServerTimestamp,
	})
	return c.update(ctx, id, updates)
}

// UpdateInside sets the field at a dotted path, e.g. "settings.theme".
func (c *Collection) UpdateInside(ctx context.Context, id, path string, value any) error {
	return c.updatePath(ctx, id, path, value)
}

// UpdateArrayInside adds value to the array at path unless an equal element is present.
func (c *Collection) UpdateArrayInside(ctx context.Context, id, path string, value any) error {
	return c.updatePath(ctx, id, path, storagemodels.ArrayUnion(value))
}

// DeleteArrayItem removes every element equal to value from the array at path.
func (c *Collection) DeleteArrayItem(ctx context.Context, id, path string, value any) error {
	return c.updatePath(ctx, id, path, storagemodels.ArrayRemove(value))
}

func (c *Collection) updatePath(ctx context.Context, id, path string, value any) error {
	fp, err := storagemodels.ParseFieldPath(path)
	if err != nil {
		return err
	}
	return c.update(ctx, id, []storagemodels.Update{{Path: fp, Value: value}})
}

func (c *Collection) update(ctx context.Context, id string, updates []storagemodels.Update) error {
	if id == "" {
		return errors.NewValidationError("id", "must not be empty")
	}
	for _, u := range updates {
		if u.Path.Root() == storagemodels.FieldCreateTimestamp {
			return errors.NewValidationError(u.Path.String(), "createTimestamp cannot be updated")
		}
	}
	if err := storagemodels.ValidateUpdates(updates); err != nil {
		return err
	}

	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := client.Update(ctx, c.path, id, updates); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c.path, id, err)
	}
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.NewValidationError("id", "must not be empty")
	}
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := client.Delete(ctx, c.path, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.path, id, err)
	}
	return nil
}

// DeleteAll deletes every document one by one. It keeps going after a failed
// delete and returns how many succeeded along with the joined failures.
func (c *Collection) DeleteAll(ctx context.Context) (int, error) {
	snaps, err := c.query(ctx, storagemodels.Query{})
	if err != nil {
		return 0, err
	}
	client, err := c.client(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	for _, s := range snaps {
		if err := client.Delete(ctx, c.path, s.ID); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s/%s: %w", c.path, s.ID, err))
			continue
		}
		deleted++
	}
	if len(errs) > 0 {
		c.logger.Warn().Int("deleted", deleted).Int("failed", len(errs)).Msg("delete all finished with failures")
	}
	return deleted, stderrors.Join(errs...)
}
