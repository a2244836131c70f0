/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package firestoredb implements datastore.Client on Google Cloud Firestore.
package firestoredb

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const countAlias = "all"

// Options selects the Firestore project and database.
type Options struct {
	// ProjectID defaults to the project detected from the environment.
	ProjectID string
	// DatabaseID defaults to "(default)".
	DatabaseID      string
	CredentialsFile string
	// EmulatorHost points the client at a local emulator, e.g. "localhost:8080".
	EmulatorHost string
}

// Store is a Firestore-backed datastore.Client.
type Store struct {
	client *firestore.Client
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps an existing Firestore client.
func New(client *firestore.Client, opts ...Option) *Store {
	s := &Store{client: client, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to Firestore.
func Open(ctx context.Context, o Options, opts ...Option) (*Store, error) {
	if o.EmulatorHost != "" {
		// The client library reads the emulator address from the environment only.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", o.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to set emulator host: %w", err)
		}
	}

	projectID := o.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var clientOpts []option.ClientOption
	if o.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(o.CredentialsFile))
	}

	var client *firestore.Client
	var err error
	if o.DatabaseID != "" && o.DatabaseID != firestore.DefaultDatabaseID {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, o.DatabaseID, clientOpts...)
	} else {
		client, err = firestore.NewClient(ctx, projectID, clientOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	s := New(client, opts...)
	s.logger.Debug().
		Str("project", projectID).
		Str("database", o.DatabaseID).
		Bool("emulator", o.EmulatorHost != "").
		Msg("Firestore client initialized")
	return s, nil
}

// Get returns the document stored under id.
func (s *Store) Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return fromFirestore(snap.Data()), true, nil
}

// Add stores data under a Firestore-generated id.
func (s *Store) Add(ctx context.Context, collection string, data storagemodels.Document) (string, error) {
	converted, err := convertMap(data, "")
	if err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, converted)
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

// Set replaces the document stored under id.
func (s *Store) Set(ctx context.Context, collection, id string, data storagemodels.Document) error {
	if id == "" {
		return errors.NewValidationError("id", "must not be empty")
	}
	converted, err := convertMap(data, "")
	if err != nil {
		return err
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, converted); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update applies field-path updates to an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	fsUpdates, err := toUpdates(updates)
	if err != nil {
		return err
	}
	_, err = s.client.Collection(collection).Doc(id).Update(ctx, fsUpdates)
	if status.Code(err) == codes.NotFound {
		return errors.NewNotFoundError(collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes the document stored under id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query runs q on the server.
func (s *Store) Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	fq, err := s.buildQuery(collection, q)
	if err != nil {
		return nil, err
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var snaps []storagemodels.Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		snaps = append(snaps, storagemodels.Snapshot{ID: doc.Ref.ID, Data: fromFirestore(doc.Data())})
	}
	return snaps, nil
}

func (s *Store) buildQuery(collection string, q storagemodels.Query) (firestore.Query, error) {
	fq := s.client.Collection(collection).Query
	if err := q.Validate(); err != nil {
		return fq, err
	}

	for _, c := range q.Filters {
		value, err := toFirestore(c.Value, c.Field, false)
		if err != nil {
			return fq, err
		}
		if c.Field == storagemodels.DocumentID {
			fq = fq.Where(firestore.DocumentID, string(c.Op), s.docRefs(collection, value))
			continue
		}
		path, _ := storagemodels.ParseFieldPath(c.Field)
		fq = fq.WherePath(firestore.FieldPath(path), string(c.Op), value)
	}

	for _, o := range q.OrderBy {
		if o.Field == storagemodels.DocumentID {
			fq = fq.OrderBy(firestore.DocumentID, direction(o.Direction))
			continue
		}
		path, _ := storagemodels.ParseFieldPath(o.Field)
		fq = fq.OrderByPath(firestore.FieldPath(path), direction(o.Direction))
	}

	if q.StartAfter != "" {
		fq = fq.StartAfter(q.StartAfter)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

// docRefs turns document ids into references, which Firestore requires for
// filters on the document id.
func (s *Store) docRefs(collection string, value any) any {
	switch tv := value.(type) {
	case string:
		return s.client.Collection(collection).Doc(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = s.docRefs(collection, e)
		}
		return out
	}
	return value
}

// Count uses a server-side count aggregation.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	res, err := s.client.Collection(collection).NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	switch v := res[countAlias].(type) {
	case *firestorepb.Value:
		return v.GetIntegerValue(), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("unexpected count result %T", res[countAlias])
}

// Close closes the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}
