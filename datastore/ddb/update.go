/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// Update applies field-path updates to an existing document.
//
// Plain top-level sets become a single UpdateItem. Nested paths and array
// transforms are applied with a read-modify-write guarded by the revision
// attribute; a concurrent writer surfaces as ConditionFailedError.
func (d *DynamodbDataStore) Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	if err := storagemodels.ValidateUpdates(updates); err != nil {
		return err
	}
	for _, u := range updates {
		if isReserved(u.Path.Root()) {
			return errors.NewValidationError(u.Path.String(), "attribute name is reserved by the store")
		}
	}

	if topLevelSets(updates) {
		return d.updateInPlace(ctx, collection, id, updates)
	}
	return d.readModifyWrite(ctx, collection, id, updates)
}

func topLevelSets(updates []storagemodels.Update) bool {
	for _, u := range updates {
		if len(u.Path) != 1 {
			return false
		}
		switch u.Value.(type) {
		case storagemodels.ArrayUnionValue, storagemodels.ArrayRemoveValue:
			return false
		}
	}
	return true
}

func (d *DynamodbDataStore) updateInPlace(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	key, err := keyFor(collection, id)
	if err != nil {
		return err
	}

	fields := make(storagemodels.Document, len(updates))
	for _, u := range updates {
		fields[u.Path[0]] = u.Value
	}
	prepared, err := query.PrepareWrite(fields, query.Once(d.stamp))
	if err != nil {
		return err
	}

	updateExpr, exprAttrNames, exprAttrValues, err := buildUpdateExpression(prepared)
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	condition := "attribute_exists(PK)"
	_, err = d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &d.tableName,
		Key:                       key,
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ConditionExpression:       &condition,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewNotFoundError(collection, id)
		}
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore) readModifyWrite(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	doc, rev, found, err := d.getWithRev(ctx, collection, id)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewNotFoundError(collection, id)
	}

	updated, err := query.ApplyUpdates(doc, updates, query.Once(d.stamp))
	if err != nil {
		return err
	}
	item, err := buildItem(collection, id, updated, rev+1)
	if err != nil {
		return err
	}

	condition := "#rev = :rev"
	values := map[string]types.AttributeValue{
		":rev": &types.AttributeValueMemberN{Value: strconv.FormatInt(rev, 10)},
	}
	if rev == 0 {
		// Written by something other than this store.
		condition = "attribute_exists(PK) AND attribute_not_exists(#rev)"
		values = nil
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                 &d.tableName,
		Item:                      item,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  map[string]string{"#rev": attrRev},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewConditionFailedError("update", fmt.Sprintf("%s/%s changed concurrently", collection, id))
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #f0 = :v0, #f1 = :v1, #rev = ...")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// The revision attribute is always incremented.
func buildUpdateExpression(updates storagemodels.Document) (string,
	map[string]string,
	map[string]types.AttributeValue,
	error) {

	if len(updates) == 0 {
		return "", nil, nil, stderrors.New("no updates provided")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(updates)+1)
	exprAttrNames := map[string]string{"#rev": attrRev}
	exprAttrValues := map[string]types.AttributeValue{
		":zero": &types.AttributeValueMemberN{Value: "0"},
		":one":  &types.AttributeValueMemberN{Value: "1"},
	}

	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":v%d", i)

		av, err := marshalValue(updates[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("field '%s': %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
		exprAttrNames[placeholderName] = field
		exprAttrValues[placeholderValue] = av
	}
	setClauses = append(setClauses, "#rev = if_not_exists(#rev, :zero) + :one")

	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}
