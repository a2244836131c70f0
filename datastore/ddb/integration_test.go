//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/suparena/collectionstore/datastore/datastoretest"
)

// Runs against DynamoDB Local or a real table:
//
//	DDB_ENDPOINT=http://localhost:8000 go test -tags=integration ./datastore/ddb/...
func TestDynamoDBContract(t *testing.T) {
	_ = godotenv.Load("../../.env")

	table := os.Getenv("AWS_DDB_TABLE")
	endpoint := os.Getenv("DDB_ENDPOINT")
	if table == "" && endpoint == "" {
		t.Skip("set AWS_DDB_TABLE or DDB_ENDPOINT to run DynamoDB integration tests")
	}
	if table == "" {
		table = "collectionstore-test"
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	opts := ClientOptions{
		Region:    region,
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Endpoint:  endpoint,
	}
	if endpoint != "" && opts.AccessKey == "" {
		opts.AccessKey, opts.SecretKey = "local", "local"
	}

	ctx := context.Background()
	store, err := Open(ctx, opts, table)
	require.NoError(t, err)
	if endpoint != "" {
		require.NoError(t, store.EnsureTable(ctx))
	}

	datastoretest.Run(t, store)
}
