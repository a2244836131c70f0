/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore/config"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/datastore/ddb"
	"github.com/suparena/collectionstore/datastore/firestoredb"
	"github.com/suparena/collectionstore/datastore/mock"
	"github.com/suparena/collectionstore/datastore/sqlite"
	"github.com/suparena/collectionstore/metrics"
)

// NewLoader returns a Loader that opens the backend selected by cfg.
func NewLoader(cfg *config.Config, logger zerolog.Logger) Loader {
	return func(ctx context.Context) (datastore.Client, error) {
		client, err := openBackend(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Metrics.Enabled {
			client = metrics.Instrument(client)
		}
		logger.Info().Str("backend", cfg.Backend).Msg("backend opened")
		return client, nil
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.Client, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return mock.New(), nil
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLite.Path)
	case config.BackendDynamoDB:
		return ddb.Open(ctx, ddb.ClientOptions{
			Region:    cfg.DynamoDB.Region,
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Endpoint:  cfg.DynamoDB.Endpoint,
		}, cfg.DynamoDB.Table, ddb.WithLogger(logger))
	case config.BackendFirestore:
		return firestoredb.Open(ctx, firestoredb.Options{
			ProjectID:       cfg.Firestore.ProjectID,
			DatabaseID:      cfg.Firestore.DatabaseID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
			EmulatorHost:    cfg.Firestore.EmulatorHost,
		}, firestoredb.WithLogger(logger))
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewHandleFromConfig returns a handle whose loader and retry policy come from cfg.
func NewHandleFromConfig(cfg *config.Config, logger zerolog.Logger) *ClientHandle {
	opts := []HandleOption{
		WithRetryBackoff(cfg.Handle.RetryBackoff),
		WithHandleLogger(logger),
	}
	if cfg.Handle.StickyFailure {
		opts = append(opts, WithStickyFailure())
	}
	return NewClientHandle(NewLoader(cfg, logger), opts...)
}
