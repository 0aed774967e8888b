// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/identity"

	_ "modernc.org/sqlite"
)

const identityTable = "ember_identity"

// SQLiteStore persists the identity as a JSON document in a single-row table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed identity store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureIdentitySchema(db); err != nil {
		return nil, errors.New(errors.CodeStoreError, "create identity schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens the database at dsn and creates a store over it.
func OpenSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "open sqlite database", err).
			WithContext("dsn", dsn)
	}
	// a single connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func ensureIdentitySchema(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		identity_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		document TEXT NOT NULL
	);`, identityTable))
	return err
}

// Exists reports whether the identity row is present.
func (s *SQLiteStore) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE slot = 1`, identityTable)).Scan(&n)
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "query identity", err)
	}
	return n > 0, nil
}

// Load returns the stored identity, or nil if there is none.
func (s *SQLiteStore) Load(ctx context.Context) (*identity.Identity, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE slot = 1`, identityTable)).Scan(&doc)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.New(errors.CodeStoreError, "load identity", err)
	}
	var id identity.Identity
	if err := json.Unmarshal([]byte(doc), &id); err != nil {
		return nil, errors.New(errors.CodeStoreError, "decode identity document", err)
	}
	return &id, nil
}

// Save inserts id unless a row already exists.
func (s *SQLiteStore) Save(ctx context.Context, id *identity.Identity) (bool, error) {
	if id == nil {
		return false, nil
	}
	doc, err := json.Marshal(id)
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "encode identity", err)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (slot, identity_id, name, created_at, document)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO NOTHING
	`, identityTable),
		id.ID,
		id.Name,
		id.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(doc),
	)
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "insert identity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.New(errors.CodeStoreError, "insert identity", err)
	}
	return n == 1, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
