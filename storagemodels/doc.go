/*
Package storagemodels defines the data structures shared by the collection layer and its backends.

Key Types:

Document and Snapshot:
A Document is a plain field map; a Snapshot pairs it with its id as returned by a backend.

Query:
Conjunctive constraints plus ordering, limit and an id cursor:

	q := Query{
	    Filters: []Constraint{Where("status", OpEqual, "active")},
	    OrderBy: []Order{{Field: FieldCreateTimestamp, Direction: Desc}},
	    Limit:   10,
	}

Update:
Explicit field-path update descriptors, validated before dispatch:

	path, _ := ParseFieldPath("settings.theme")
	updates := []Update{
	    {Path: path, Value: "dark"},
	    {Path: FieldPath{"tags"}, Value: ArrayUnion("go")},
	    {Path: FieldPath{FieldUpdateTimestamp}, Value: ServerTimestamp},
	}

Write transforms (ServerTimestamp, ArrayUnion, ArrayRemove) are resolved by each backend.

StreamOptions:
Configuration for paged streaming:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
