/*
Package ddb provides a DynamoDB implementation of the datastore.Client interface.

The DynamodbDataStore supports:
  - Single-table design, one partition per collection
  - Macro-based key expansion (e.g., "DOC#{id}")
  - Field-path updates, natively for top-level sets and by optimistic
    read-modify-write for nested paths and array transforms
  - Paged queries with retry on throttling

Key Features:

Macro Expansion:
Keys are built from templates whose {collection} and {id} macros are replaced
per document. The defaults can be overridden per collection:

	registry.RegisterKeyTemplates("users", map[string]string{
	    "PK": "USER",             // Static partition
	    "SK": "USER#{id}",        // Becomes "USER#abc123"
	})

A partition key template that uses {id} makes the collection unqueryable;
Query and Count then fail with errors.ErrUnsupported.

Timestamps:
DynamoDB has no timestamp type. Timestamps are stored as tagged maps by the
codec package and read back as strfmt.DateTime.
*/
package ddb
