/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"reflect"

	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

// maxNormalizeDepth bounds recursion into nested containers.
const maxNormalizeDepth = 64

// NormalizeTimestamps replaces database-native timestamps with time.Time.
//
// Maps and slices are rewritten in place and nested containers are visited;
// the same top-level value is returned. A top-level timestamp is returned
// converted. Other values are returned untouched. Containers already visited
// and anything deeper than maxNormalizeDepth are skipped.
func NormalizeTimestamps(v any) any {
	if t, ok := registry.ConvertTimestamp(v); ok {
		return t
	}
	n := normalizer{visited: make(map[containerID]struct{})}
	n.walk(v, 0)
	return v
}

type containerID struct {
	ptr  uintptr
	kind reflect.Kind
	len  int
}

type normalizer struct {
	visited map[containerID]struct{}
}

func (n *normalizer) seen(v any) bool {
	rv := reflect.ValueOf(v)
	id := containerID{ptr: rv.Pointer(), kind: rv.Kind(), len: rv.Len()}
	if _, ok := n.visited[id]; ok {
		return true
	}
	n.visited[id] = struct{}{}
	return false
}

func (n *normalizer) walk(v any, depth int) {
	if depth >= maxNormalizeDepth {
		return
	}
	switch tv := v.(type) {
	case storagemodels.Document:
		n.walkMap(tv, depth)
	case map[string]any:
		n.walkMap(tv, depth)
	case []any:
		if len(tv) == 0 || n.seen(tv) {
			return
		}
		for i, e := range tv {
			if t, ok := registry.ConvertTimestamp(e); ok {
				tv[i] = t
				continue
			}
			n.walk(e, depth+1)
		}
	}
}

func (n *normalizer) walkMap(m map[string]any, depth int) {
	if m == nil || n.seen(m) {
		return
	}
	for k, e := range m {
		if t, ok := registry.ConvertTimestamp(e); ok {
			m[k] = t
			continue
		}
		n.walk(e, depth+1)
	}
}
