/*
Package collectionstore provides generic access to the collections of a hosted
document database, with pluggable backends for Firestore, DynamoDB, SQLite and
an in-memory store.

A ClientHandle opens the backend lazily and memoizes it; every concurrent first
caller shares one initialization. A Collection then offers create, read, list,
count, latest, update, nested field and array mutations, and deletes over one
collection path. Reads convert database-native timestamps to time.Time.

Basic Usage:

	cfg, _ := config.Load("collectionstore.yaml")
	handle := collectionstore.NewHandleFromConfig(cfg, zerolog.Nop())
	defer handle.Close()

	users, _ := collectionstore.NewCollection("users", collectionstore.WithHandle(handle))
	doc, _ := users.CreateWithID(ctx, "u1", storagemodels.Document{"displayName": "Ada"})
	_ = users.UpdateArrayInside(ctx, "u1", "roles", "admin")

	latest, _ := users.ReadSingle(ctx, 10)

Typed reads decode documents into structs tagged with `doc`:

	type User struct {
		ID          string    `doc:"id"`
		DisplayName string    `doc:"displayName"`
		Created     time.Time `doc:"createTimestamp"`
	}
	u, _ := collectionstore.NewTypedCollection[User](users).Read(ctx, "u1")
*/
package collectionstore
