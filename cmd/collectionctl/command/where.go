/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suparena/collectionstore/datastore/codec"
	"github.com/suparena/collectionstore/storagemodels"
)

// ParseWhere parses a filter of the form "field op value". The operator must be
// surrounded by spaces. The value is JSON; anything that is not valid JSON is
// taken as a plain string.
func ParseWhere(expr string) (storagemodels.Constraint, error) {
	at, width := -1, 0
	var op storagemodels.Operator
	// Operators are listed longest first, so on a tie the longer one wins.
	for _, candidate := range storagemodels.Operators() {
		sep := " " + string(candidate) + " "
		if i := strings.Index(expr, sep); i >= 0 && (at < 0 || i < at) {
			at, width, op = i, len(sep), candidate
		}
	}
	if at >= 0 {
		field := strings.TrimSpace(expr[:at])
		value := strings.TrimSpace(expr[at+width:])
		if field != "" && value != "" {
			c := storagemodels.Where(field, op, parseValue(value))
			if err := c.Validate(); err != nil {
				return storagemodels.Constraint{}, err
			}
			return c, nil
		}
	}
	return storagemodels.Constraint{}, fmt.Errorf("invalid filter %q: want \"field op value\"", expr)
}

func parseValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return codec.DecodeValue(v)
}
