// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage is the narrow transactional API over the relational
// store: schema, upserts, range queries, and atomic multi-row mutations
// against a SQLite-compatible database. A single *sql.DB is shared by
// all readers; writers are serialized by SQLite itself.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/pvledger/pvledger/model"
	"github.com/rs/zerolog/log"
)

// Storage wraps the database handle and exposes the domain operations
// used by the acquisition pipeline, the lot ledger, and the PnL
// calculator.
type Storage struct {
	conn   *sql.DB
	dbPath string
}

// Open connects to the SQLite-compatible store at dbPath. It does not run
// migrations; call Migrate first on a fresh database.
func Open(dbPath string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return nil, model.NewError(model.KindStorageError, "could not open database", err)
	}

	// SQLite allows only one writer at a time; a single connection avoids
	// "database is locked" errors under concurrent acquisition workers.
	conn.SetMaxOpenConns(1)

	return &Storage{conn: conn, dbPath: dbPath}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.conn.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting read helpers
// run either inside or outside an explicit transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WithTransaction runs fn inside a single database transaction. Any error
// returned by fn rolls the transaction back and is propagated to the
// caller unchanged; a nil error commits. This is the only way storage
// mutates more than one row atomically.
func (s *Storage) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return model.NewError(model.KindStorageError, "could not begin transaction", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("error rolling back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyError(err, "could not commit transaction")
	}
	return nil
}

// classifyError tags a raw database/sql or sqlite3 error with the
// categorical Kind callers switch on.
func classifyError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewError(model.KindNotFound, msg, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return model.NewError(model.KindConstraintViolation, msg, err)
		}
	}

	return model.NewError(model.KindStorageError, msg, err)
}

// wrapExec classifies the error from an ExecContext call, discarding the
// sql.Result when the caller only needs success/failure.
func wrapExec(_ sql.Result, err error, msg string) error {
	if err != nil {
		return classifyError(err, msg)
	}
	return nil
}
