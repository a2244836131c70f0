/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/registry"
)

// Attribute names maintained by the store next to the document fields.
const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrCollection = "Collection"
	attrDocID      = "DocID"
	attrRev        = "Rev"
)

// Macros available in key templates.
const (
	macroCollection = "collection"
	macroID         = "id"
)

// DefaultKeyTemplates lays every collection out under one partition.
var DefaultKeyTemplates = map[string]string{
	attrPK: "COLLECTION#{collection}",
	attrSK: "DOC#{id}",
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces each {name} in the templates with values[name].
// Unknown macros expand to the empty string.
func expandMacros(templates map[string]string, values map[string]string) map[string]string {
	res := make(map[string]string, len(templates))
	for attr, template := range templates {
		res[attr] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			return values[strings.Trim(macro, "{}")]
		})
	}
	return res
}

func templatesFor(collection string) map[string]string {
	if t, ok := registry.GetKeyTemplates(collection); ok {
		return t
	}
	return DefaultKeyTemplates
}

// keyFor builds the primary key of a document.
func keyFor(collection, id string) (map[string]types.AttributeValue, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "must not be empty")
	}
	expanded := expandMacros(templatesFor(collection), map[string]string{
		macroCollection: collection,
		macroID:         id,
	})

	pk, sk := expanded[attrPK], expanded[attrSK]
	if pk == "" || sk == "" {
		return nil, fmt.Errorf("key templates for %q must produce non-empty %s and %s", collection, attrPK, attrSK)
	}
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// partitionFor returns the partition key shared by every document of a collection.
// Templates whose partition key depends on the document id cannot be queried.
func partitionFor(collection string) (string, error) {
	template := templatesFor(collection)[attrPK]
	for _, m := range macroPattern.FindAllStringSubmatch(template, -1) {
		if m[1] == macroID {
			return "", fmt.Errorf("%w: partition key of %q depends on the document id", errors.ErrUnsupported, collection)
		}
	}
	return expandMacros(map[string]string{attrPK: template}, map[string]string{macroCollection: collection})[attrPK], nil
}

func isReserved(field string) bool {
	switch field {
	case attrPK, attrSK, attrCollection, attrDocID, attrRev:
		return true
	}
	return false
}
