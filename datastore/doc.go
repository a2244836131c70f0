/*
Package datastore defines the database client capability consumed by the collection layer.

The main interface is Client, which exposes one method per request the collection layer
issues against a document database:

	type Client interface {
	    Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error)
	    Add(ctx context.Context, collection string, data storagemodels.Document) (string, error)
	    Set(ctx context.Context, collection, id string, data storagemodels.Document) error
	    Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error
	    Delete(ctx context.Context, collection, id string) error
	    Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error)
	    Count(ctx context.Context, collection string) (int64, error)
	    Close() error
	}

Implementations:
  - firestoredb: Google Cloud Firestore
  - ddb: DynamoDB single-table implementation
  - sqlite: local SQLite file
  - mock: in-memory implementation with Firestore semantics, for testing

Shared helpers live in query (filtering, ordering, update application) and codec (tagged
timestamp encoding for backends without a native timestamp type). The datastoretest package
runs one behavior suite against any implementation.
*/
package datastore
