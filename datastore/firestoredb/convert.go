/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package firestoredb

import (
	"cloud.google.com/go/firestore"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// toFirestore swaps write sentinels for their Firestore equivalents.
// Sentinels inside arrays are rejected, as Firestore does.
func toFirestore(v any, field string, inArray bool) (any, error) {
	switch tv := v.(type) {
	case storagemodels.ServerTimestampValue:
		if inArray {
			return nil, errors.NewValidationError(field, "write transforms are not allowed inside arrays")
		}
		return firestore.ServerTimestamp, nil
	case storagemodels.ArrayUnionValue:
		if inArray {
			return nil, errors.NewValidationError(field, "write transforms are not allowed inside arrays")
		}
		elems, err := convertElems(tv.Elems, field)
		if err != nil {
			return nil, err
		}
		return firestore.ArrayUnion(elems...), nil
	case storagemodels.ArrayRemoveValue:
		if inArray {
			return nil, errors.NewValidationError(field, "write transforms are not allowed inside arrays")
		}
		elems, err := convertElems(tv.Elems, field)
		if err != nil {
			return nil, err
		}
		return firestore.ArrayRemove(elems...), nil
	case storagemodels.Document:
		return convertMap(tv, field)
	case map[string]any:
		return convertMap(tv, field)
	case []any:
		return convertElems(tv, field)
	}
	return v, nil
}

func convertMap(m map[string]any, field string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		path := k
		if field != "" {
			path = field + "." + k
		}
		cv, err := toFirestore(v, path, false)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

func convertElems(elems []any, field string) ([]any, error) {
	out := make([]any, len(elems))
	for i, e := range elems {
		ce, err := toFirestore(e, field, true)
		if err != nil {
			return nil, err
		}
		out[i] = ce
	}
	return out, nil
}

// toUpdates converts field-path updates into Firestore updates.
func toUpdates(updates []storagemodels.Update) ([]firestore.Update, error) {
	if err := storagemodels.ValidateUpdates(updates); err != nil {
		return nil, err
	}
	out := make([]firestore.Update, len(updates))
	for i, u := range updates {
		v, err := toFirestore(u.Value, u.Path.String(), false)
		if err != nil {
			return nil, err
		}
		out[i] = firestore.Update{FieldPath: firestore.FieldPath(u.Path), Value: v}
	}
	return out, nil
}

// fromFirestore copies snapshot data into a Document.
func fromFirestore(data map[string]any) storagemodels.Document {
	if data == nil {
		return storagemodels.Document{}
	}
	return storagemodels.Document(data)
}

func direction(d storagemodels.Direction) firestore.Direction {
	if d == storagemodels.Desc {
		return firestore.Desc
	}
	return firestore.Asc
}
