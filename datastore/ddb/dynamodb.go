/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// API is the subset of the DynamoDB client used by the store.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
}

// DynamodbDataStore implements datastore.Client on a single DynamoDB table.
type DynamodbDataStore struct {
	client    API
	tableName string
	clock     func() time.Time
	logger    zerolog.Logger
}

// Option configures a DynamodbDataStore.
type Option func(*DynamodbDataStore)

// WithClock sets the time source used for server timestamps.
func WithClock(clock func() time.Time) Option {
	return func(d *DynamodbDataStore) {
		d.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *DynamodbDataStore) {
		d.logger = logger
	}
}

// ClientOptions holds what is needed to reach DynamoDB.
// Empty keys fall back to the default AWS credential chain.
type ClientOptions struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client using AWS credentials.
func NewDynamoDBClient(ctx context.Context, opts ClientOptions) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// NewDynamodbDataStore wraps an existing client.
func NewDynamodbDataStore(client API, tableName string, opts ...Option) *DynamodbDataStore {
	d := &DynamodbDataStore{
		client:    client,
		tableName: tableName,
		clock:     time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open creates a client from opts and wraps it.
func Open(ctx context.Context, clientOpts ClientOptions, tableName string, opts ...Option) (*DynamodbDataStore, error) {
	client, err := NewDynamoDBClient(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	d := NewDynamodbDataStore(client, tableName, opts...)
	d.logger.Debug().
		Str("table", tableName).
		Str("region", clientOpts.Region).
		Msg("DynamoDB client initialized")
	return d, nil
}

// EnsureTable creates the table with PK/SK string keys if it does not exist.
func (d *DynamodbDataStore) EnsureTable(ctx context.Context) error {
	_, err := d.client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: &d.tableName,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !stderrors.As(err, &inUse) {
		return fmt.Errorf("failed to create table %s: %w", d.tableName, err)
	}
	return nil
}

func (d *DynamodbDataStore) stamp() any {
	return strfmt.DateTime(d.clock().UTC())
}

// Get retrieves a single document with a strongly consistent read.
func (d *DynamodbDataStore) Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error) {
	doc, _, found, err := d.getWithRev(ctx, collection, id)
	return doc, found, err
}

func (d *DynamodbDataStore) getWithRev(ctx context.Context, collection, id string) (storagemodels.Document, int64, bool, error) {
	key, err := keyFor(collection, id)
	if err != nil {
		return nil, 0, false, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, 0, false, nil
	}

	_, rev, doc, err := splitItem(out.Item)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return doc, rev, true, nil
}

// Add stores data under a new random id. An id collision is reported, never overwritten.
func (d *DynamodbDataStore) Add(ctx context.Context, collection string, data storagemodels.Document) (string, error) {
	id := uuid.NewString()
	if err := d.put(ctx, collection, id, data, aws.String("attribute_not_exists(PK)")); err != nil {
		if errors.IsConditionFailed(err) {
			return "", errors.NewAlreadyExistsError(collection, id)
		}
		return "", err
	}
	return id, nil
}

// Set replaces the document stored under id.
func (d *DynamodbDataStore) Set(ctx context.Context, collection, id string, data storagemodels.Document) error {
	return d.put(ctx, collection, id, data, nil)
}

func (d *DynamodbDataStore) put(ctx context.Context, collection, id string, data storagemodels.Document, condition *string) error {
	prepared, err := query.PrepareWrite(data, query.Once(d.stamp))
	if err != nil {
		return err
	}
	item, err := buildItem(collection, id, prepared, 1)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: condition,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewConditionFailedError("put", aws.ToString(condition))
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (d *DynamodbDataStore) Delete(ctx context.Context, collection, id string) error {
	key, err := keyFor(collection, id)
	if err != nil {
		return err
	}

	if _, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &d.tableName,
		Key:       key,
	}); err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connection that needs releasing.
func (d *DynamodbDataStore) Close() error {
	return nil
}
