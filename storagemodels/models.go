/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"

	"github.com/suparena/collectionstore/errors"
)

// Reserved document fields maintained by the collection layer.
const (
	FieldID              = "id"
	FieldCreateTimestamp = "createTimestamp"
	FieldUpdateTimestamp = "updateTimestamp"
)

// DocumentID is the pseudo-field naming the document id in orderings and cursors.
const DocumentID = "__name__"

// Document is a stored record: field name to value.
type Document map[string]any

// Snapshot is one document as returned by a backend.
type Snapshot struct {
	// ID is unique within the collection.
	ID string
	// Data holds the stored fields, without the id.
	Data Document
}

// Operator is a constraint comparison operator.
type Operator string

const (
	OpEqual            Operator = "=="
	OpNotEqual         Operator = "!="
	OpLess             Operator = "<"
	OpLessOrEqual      Operator = "<="
	OpGreater          Operator = ">"
	OpGreaterOrEqual   Operator = ">="
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
)

var operators = map[Operator]struct{}{
	OpEqual: {}, OpNotEqual: {}, OpLess: {}, OpLessOrEqual: {}, OpGreater: {}, OpGreaterOrEqual: {},
	OpArrayContains: {}, OpArrayContainsAny: {}, OpIn: {}, OpNotIn: {},
}

// Operators returns every supported operator, longest symbols first.
func Operators() []Operator {
	return []Operator{
		OpArrayContainsAny, OpArrayContains, OpNotIn, OpIn,
		OpEqual, OpNotEqual, OpLessOrEqual, OpGreaterOrEqual, OpLess, OpGreater,
	}
}

// Constraint filters a query. Several constraints combine with AND.
type Constraint struct {
	Field string
	Op    Operator
	Value any
}

// Where builds a Constraint.
func Where(field string, op Operator, value any) Constraint {
	return Constraint{Field: field, Op: op, Value: value}
}

// Validate checks the field path, the operator and list-valued operands.
func (c Constraint) Validate() error {
	if _, err := ParseFieldPath(c.Field); err != nil {
		return err
	}
	if _, ok := operators[c.Op]; !ok {
		return errors.NewValidationError("op", fmt.Sprintf("unsupported operator %q", c.Op))
	}
	switch c.Op {
	case OpIn, OpNotIn, OpArrayContainsAny:
		if _, ok := c.Value.([]any); !ok {
			return errors.NewValidationError("value", fmt.Sprintf("operator %q requires a []any operand", c.Op))
		}
	}
	return nil
}

// Direction is the sort direction for result ordering.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Order sorts query results by one field.
type Order struct {
	Field     string
	Direction Direction
}

// Query describes a read against one collection.
type Query struct {
	// Filters are combined with AND.
	Filters []Constraint
	OrderBy []Order
	// Limit caps the number of results; zero means no limit.
	Limit int
	// StartAfter is a document id cursor. It requires ordering by DocumentID.
	StartAfter string
}

// Validate checks every constraint and the cursor requirements.
func (q Query) Validate() error {
	for _, c := range q.Filters {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return errors.NewValidationError("limit", "must not be negative")
	}
	if q.StartAfter != "" {
		if len(q.OrderBy) == 0 || q.OrderBy[len(q.OrderBy)-1].Field != DocumentID {
			return errors.NewValidationError("startAfter", "cursor requires ordering by document id")
		}
	}
	return nil
}
