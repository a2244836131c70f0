/*
Package registry holds process-wide lookup tables used by the collection layer and its backends.

Key Templates:
Backends with composite keys (DynamoDB) expand per-collection templates:

	registry.RegisterKeyTemplates("users", map[string]string{
	    "PK": "APP#users",
	    "SK": "USER#{id}",
	})

Templates may reference {collection} and {id}. Collections without templates use the
backend defaults.

Timestamp Converters:
Maps database-native timestamp values to time.Time. Protobuf timestamps (the Firestore wire
type) and strfmt.DateTime are registered by default:

	registry.RegisterTimestampConverter("unix-millis", func(v any) (time.Time, bool) {
	    ms, ok := v.(UnixMillis)
	    return time.UnixMilli(int64(ms)), ok
	})

The registry is thread-safe and should be populated during initialization.
*/
package registry
