/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/suparena/collectionstore/registry"
	"github.com/suparena/collectionstore/storagemodels"
)

// Type ranks follow Firestore's cross-type ordering.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankTimestamp
	rankString
	rankBytes
	rankArray
	rankMap
	rankOther
)

// narrow maps values of named scalar types, such as time.Duration or a
// user-defined enum, onto the base type their kind stores. Registered
// timestamp types are left alone.
func narrow(v any) any {
	switch v.(type) {
	case nil, bool, string, int64, float64, json.Number, time.Time:
		return v
	}
	if registry.IsTimestamp(v) {
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

func typeRank(v any) int {
	switch tv := narrow(v).(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case string:
		return rankString
	case []byte:
		return rankBytes
	case []any:
		return rankArray
	case map[string]any, storagemodels.Document:
		return rankMap
	case time.Time:
		return rankTimestamp
	default:
		if _, ok := toFloat(tv); ok {
			return rankNumber
		}
		if registry.IsTimestamp(tv) {
			return rankTimestamp
		}
		return rankOther
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	return registry.ConvertTimestamp(v)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case storagemodels.Document:
		return m, true
	}
	return nil, false
}

// Compare orders two values: negative when a sorts first, zero when equal.
// Values of different types order by type rank.
func Compare(a, b any) int {
	a, b = narrow(a), narrow(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case rankTimestamp:
		ta, _ := toTime(a)
		tb, _ := toTime(b)
		return ta.Compare(tb)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankBytes:
		return bytes.Compare(a.([]byte), b.([]byte))
	case rankArray:
		la, lb := a.([]any), b.([]any)
		for i := 0; i < len(la) && i < len(lb); i++ {
			if c := Compare(la[i], lb[i]); c != 0 {
				return c
			}
		}
		return len(la) - len(lb)
	case rankMap:
		ma, _ := asMap(a)
		mb, _ := asMap(b)
		ka, kb := sortedKeys(ma), sortedKeys(mb)
		for i := 0; i < len(ka) && i < len(kb); i++ {
			if c := strings.Compare(ka[i], kb[i]); c != 0 {
				return c
			}
			if c := Compare(ma[ka[i]], mb[kb[i]]); c != 0 {
				return c
			}
		}
		return len(ka) - len(kb)
	}

	// Values of unknown types are only equal when deeply equal.
	if reflect.DeepEqual(a, b) {
		return 0
	}
	if c := strings.Compare(fmt.Sprintf("%T%+v", a), fmt.Sprintf("%T%+v", b)); c != 0 {
		return c
	}
	return 1
}

// Equal reports whether two values are equal under Compare.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
