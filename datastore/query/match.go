/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"sort"

	"github.com/suparena/collectionstore/storagemodels"
)

// Lookup returns the value at a nested field path.
func Lookup(doc storagemodels.Document, path storagemodels.FieldPath) (any, bool) {
	var cur any = map[string]any(doc)
	for _, seg := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func fieldValue(id string, doc storagemodels.Document, field string) (any, bool) {
	if field == storagemodels.DocumentID {
		return id, true
	}
	path, err := storagemodels.ParseFieldPath(field)
	if err != nil {
		return nil, false
	}
	return Lookup(doc, path)
}

// Match reports whether a document satisfies one constraint.
// A document missing the field never matches, whatever the operator.
func Match(id string, doc storagemodels.Document, c storagemodels.Constraint) bool {
	v, ok := fieldValue(id, doc, c.Field)
	if !ok {
		return false
	}
	c.Value = operand(c.Value)

	switch c.Op {
	case storagemodels.OpEqual:
		return Equal(v, c.Value)
	case storagemodels.OpNotEqual:
		return v != nil && !Equal(v, c.Value)
	case storagemodels.OpLess:
		return sameRank(v, c.Value) && Compare(v, c.Value) < 0
	case storagemodels.OpLessOrEqual:
		return sameRank(v, c.Value) && Compare(v, c.Value) <= 0
	case storagemodels.OpGreater:
		return sameRank(v, c.Value) && Compare(v, c.Value) > 0
	case storagemodels.OpGreaterOrEqual:
		return sameRank(v, c.Value) && Compare(v, c.Value) >= 0
	case storagemodels.OpArrayContains:
		arr, ok := v.([]any)
		return ok && contains(arr, c.Value)
	case storagemodels.OpArrayContainsAny:
		arr, ok := v.([]any)
		if !ok {
			return false
		}
		operand, _ := c.Value.([]any)
		for _, want := range operand {
			if contains(arr, want) {
				return true
			}
		}
		return false
	case storagemodels.OpIn:
		operand, _ := c.Value.([]any)
		return contains(operand, v)
	case storagemodels.OpNotIn:
		operand, _ := c.Value.([]any)
		return v != nil && !contains(operand, v)
	}
	return false
}

// MatchAll reports whether a document satisfies every constraint.
func MatchAll(id string, doc storagemodels.Document, constraints []storagemodels.Constraint) bool {
	for _, c := range constraints {
		if !Match(id, doc, c) {
			return false
		}
	}
	return true
}

func sameRank(a, b any) bool {
	return typeRank(a) == typeRank(b)
}

func contains(arr []any, v any) bool {
	for _, e := range arr {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// Run evaluates q over snapshots: filter, order, cursor, then limit.
// Documents missing an ordered field are excluded. Ties order by id.
func Run(snaps []storagemodels.Snapshot, q storagemodels.Query) []storagemodels.Snapshot {
	out := make([]storagemodels.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if !MatchAll(s.ID, s.Data, q.Filters) {
			continue
		}
		if !hasOrderedFields(s, q.OrderBy) {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], q.OrderBy)
	})

	if q.StartAfter != "" {
		out = afterCursor(out, q)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func hasOrderedFields(s storagemodels.Snapshot, orders []storagemodels.Order) bool {
	for _, o := range orders {
		if _, ok := fieldValue(s.ID, s.Data, o.Field); !ok {
			return false
		}
	}
	return true
}

func less(a, b storagemodels.Snapshot, orders []storagemodels.Order) bool {
	for _, o := range orders {
		av, _ := fieldValue(a.ID, a.Data, o.Field)
		bv, _ := fieldValue(b.ID, b.Data, o.Field)
		c := Compare(av, bv)
		if c == 0 {
			continue
		}
		if o.Direction == storagemodels.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

func afterCursor(sorted []storagemodels.Snapshot, q storagemodels.Query) []storagemodels.Snapshot {
	for i, s := range sorted {
		if s.ID == q.StartAfter {
			return sorted[i+1:]
		}
	}

	// The cursor document is gone; fall back to the id ordering alone.
	desc := len(q.OrderBy) > 0 && q.OrderBy[len(q.OrderBy)-1].Direction == storagemodels.Desc
	out := sorted[:0:0]
	for _, s := range sorted {
		if (!desc && s.ID > q.StartAfter) || (desc && s.ID < q.StartAfter) {
			out = append(out, s)
		}
	}
	return out
}
