/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite implements datastore.Client on a local SQLite file.
//
// Every collection shares one documents table; each row holds a JSON document
// encoded with the codec package. Queries are evaluated in process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/suparena/collectionstore/datastore/codec"
	"github.com/suparena/collectionstore/datastore/query"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Store is a SQLite-backed document store.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for server timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) stamp() any {
	return s.clock().UTC()
}

// Get returns the document stored under id.
func (s *Store) Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	doc, err := codec.Unmarshal([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Add stores data under a generated id.
func (s *Store) Add(ctx context.Context, collection string, data storagemodels.Document) (string, error) {
	raw, err := s.encode(data)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO documents (collection, id, data) VALUES (?, ?, ?)`, collection, id, raw)
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", errors.NewAlreadyExistsError(collection, id)
	}
	return id, nil
}

// Set replaces the document stored under id.
func (s *Store) Set(ctx context.Context, collection, id string, data storagemodels.Document) error {
	if id == "" {
		return errors.NewValidationError("id", "must not be empty")
	}
	raw, err := s.encode(data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update applies updates inside a single transaction.
func (s *Store) Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}

	current, err := codec.Unmarshal([]byte(raw))
	if err != nil {
		return err
	}
	updated, err := query.ApplyUpdates(current, updates, query.Once(s.stamp))
	if err != nil {
		return err
	}
	out, err := codec.Marshal(updated)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`, string(out), collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

// Delete removes the document stored under id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query loads the collection and evaluates q in process.
func (s *Store) Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var snaps []storagemodels.Snapshot
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		doc, err := codec.Unmarshal([]byte(raw))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, storagemodels.Snapshot{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return query.Run(snaps, q), nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) encode(data storagemodels.Document) (string, error) {
	prepared, err := query.PrepareWrite(data, query.Once(s.stamp))
	if err != nil {
		return "", err
	}
	raw, err := codec.Marshal(prepared)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
