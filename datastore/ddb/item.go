/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/collectionstore/datastore/codec"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// marshalDocument converts a prepared document into DynamoDB attributes.
func marshalDocument(doc storagemodels.Document) (map[string]types.AttributeValue, error) {
	for field := range doc {
		if isReserved(field) {
			return nil, errors.NewValidationError(field, "attribute name is reserved by the store")
		}
	}
	av, err := attributevalue.MarshalMap(codec.Encode(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return av, nil
}

// marshalValue converts one prepared value into an attribute value.
func marshalValue(v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(codec.EncodeValue(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return av, nil
}

// buildItem adds the key and bookkeeping attributes to a marshaled document.
func buildItem(collection, id string, doc storagemodels.Document, rev int64) (map[string]types.AttributeValue, error) {
	item, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}
	key, err := keyFor(collection, id)
	if err != nil {
		return nil, err
	}
	for k, v := range key {
		item[k] = v
	}
	item[attrCollection] = &types.AttributeValueMemberS{Value: collection}
	item[attrDocID] = &types.AttributeValueMemberS{Value: id}
	item[attrRev] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rev, 10)}
	return item, nil
}

// splitItem separates an item into its document id, revision and fields.
func splitItem(item map[string]types.AttributeValue) (string, int64, storagemodels.Document, error) {
	var id string
	var rev int64
	doc := make(storagemodels.Document, len(item))
	for k, av := range item {
		switch k {
		case attrPK, attrSK, attrCollection:
			continue
		case attrDocID:
			s, ok := av.(*types.AttributeValueMemberS)
			if !ok {
				return "", 0, nil, fmt.Errorf("attribute %s is not a string", attrDocID)
			}
			id = s.Value
			continue
		case attrRev:
			n, ok := av.(*types.AttributeValueMemberN)
			if !ok {
				return "", 0, nil, fmt.Errorf("attribute %s is not a number", attrRev)
			}
			parsed, err := strconv.ParseInt(n.Value, 10, 64)
			if err != nil {
				return "", 0, nil, fmt.Errorf("invalid %s: %w", attrRev, err)
			}
			rev = parsed
			continue
		}
		v, err := fromAttributeValue(av)
		if err != nil {
			return "", 0, nil, fmt.Errorf("field %s: %w", k, err)
		}
		doc[k] = codec.DecodeValue(v)
	}
	return id, rev, doc, nil
}

// fromAttributeValue decodes numbers as int64 when integral, float64 otherwise.
func fromAttributeValue(av types.AttributeValue) (any, error) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value, nil
	case *types.AttributeValueMemberN:
		return parseNumber(tv.Value)
	case *types.AttributeValueMemberBOOL:
		return tv.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return tv.Value, nil
	case *types.AttributeValueMemberL:
		out := make([]any, len(tv.Value))
		for i, e := range tv.Value {
			v, err := fromAttributeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *types.AttributeValueMemberM:
		out := make(map[string]any, len(tv.Value))
		for k, e := range tv.Value {
			v, err := fromAttributeValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case *types.AttributeValueMemberSS:
		out := make([]any, len(tv.Value))
		for i, s := range tv.Value {
			out[i] = s
		}
		return out, nil
	case *types.AttributeValueMemberNS:
		out := make([]any, len(tv.Value))
		for i, s := range tv.Value {
			n, err := parseNumber(s)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *types.AttributeValueMemberBS:
		out := make([]any, len(tv.Value))
		for i, b := range tv.Value {
			out[i] = b
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported attribute value %T", av)
}

func parseNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}
