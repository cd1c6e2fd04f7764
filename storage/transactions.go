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
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pvledger/pvledger/model"
)

// insertTransactionTx writes txn within tx. It returns a *model.Error
// tagged KindConstraintViolation if (owner_id, external_id) already
// exists; callers that want the idempotent "return the existing record"
// behavior should check FindTransactionByExternalID first.
func insertTransactionTx(ctx context.Context, tx *sql.Tx, txn model.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, symbol, kind, quantity, price, commission, transaction_date, external_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.OwnerID, txn.Symbol, string(txn.Kind), txn.Quantity, txn.Price, txn.Commission,
		txn.TransactionDate, txn.ExternalID, txn.Notes, txn.CreatedAt)
	if err != nil {
		return classifyError(err, "could not insert transaction")
	}
	return nil
}

// FindTransactionByExternalID looks up a transaction by (owner, external
// id). It returns (nil, nil) when none exists.
func (s *Storage) FindTransactionByExternalID(ctx context.Context, ownerID, externalID string) (*model.Transaction, error) {
	var txn model.Transaction
	err := sqlscan.Get(ctx, s.conn, &txn, `
		SELECT id, owner_id, symbol, kind, quantity, price, commission, transaction_date, external_id, notes, created_at
		FROM transactions WHERE owner_id = ? AND external_id = ?`, ownerID, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, classifyError(err, "could not query transaction by external id")
	}
	return &txn, nil
}

// GetTransaction fetches a single transaction by id.
func (s *Storage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	var txn model.Transaction
	err := sqlscan.Get(ctx, s.conn, &txn, `
		SELECT id, owner_id, symbol, kind, quantity, price, commission, transaction_date, external_id, notes, created_at
		FROM transactions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, model.NewError(model.KindNotFound, "transaction not found", err)
		}
		return nil, classifyError(err, "could not query transaction")
	}
	return &txn, nil
}
