/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/storagemodels"
)

const (
	maxRetries   = 3
	retryBackoff = 100 * time.Millisecond
)

// Query pages through the collection partition and evaluates q in process.
func (d *DynamodbDataStore) Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	input, err := d.partitionQuery(collection)
	if err != nil {
		return nil, err
	}

	var snaps []storagemodels.Snapshot
	err = d.eachPage(ctx, input, func(out *dynamodb.QueryOutput) error {
		for _, item := range out.Items {
			id, _, doc, err := splitItem(item)
			if err != nil {
				return fmt.Errorf("failed to unmarshal item: %w", err)
			}
			snaps = append(snaps, storagemodels.Snapshot{ID: id, Data: doc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return query.Run(snaps, q), nil
}

// Count sums the server-side counts of every page of the collection partition.
func (d *DynamodbDataStore) Count(ctx context.Context, collection string) (int64, error) {
	input, err := d.partitionQuery(collection)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	var total int64
	err = d.eachPage(ctx, input, func(out *dynamodb.QueryOutput) error {
		total += int64(out.Count)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (d *DynamodbDataStore) partitionQuery(collection string) (*dynamodb.QueryInput, error) {
	pk, err := partitionFor(collection)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String("PK = :pk"),
		FilterExpression:       aws.String("#coll = :coll"),
		ExpressionAttributeNames: map[string]string{
			"#coll": attrCollection,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: pk},
			":coll": &types.AttributeValueMemberS{Value: collection},
		},
		ConsistentRead: aws.Bool(true),
	}, nil
}

// eachPage follows LastEvaluatedKey until the partition is exhausted.
func (d *DynamodbDataStore) eachPage(ctx context.Context, input *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput) error) error {
	pageNumber := 0
	for {
		out, err := d.queryWithRetry(ctx, input)
		if err != nil {
			return fmt.Errorf("query error: %w", err)
		}
		pageNumber++
		if err := fn(out); err != nil {
			return err
		}

		if len(out.LastEvaluatedKey) == 0 {
			d.logger.Debug().Int("pages", pageNumber).Str("table", d.tableName).Msg("query complete")
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryWithRetry retries throttling and transient server errors with linear backoff.
func (d *DynamodbDataStore) queryWithRetry(ctx context.Context, input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < maxRetries {
			d.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying query")
			backoff := time.Duration(attempt+1) * retryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", maxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
